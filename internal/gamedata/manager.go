// Package gamedata owns the synchronized game dataset. It reconciles the
// durable local cache against the remote spreadsheet, decides where reads
// come from, and schedules debounced write-back to remote storage.
//
// The remote side uses two files: the canonical spreadsheet, which a human
// may have open in a browser, and a working copy derived by a fixed suffix.
// All uploads target the working copy; the canonical file is only ever
// updated by copying the working copy onto it, so external editors never
// contend with bot writes.
package gamedata

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"goal-challenge-bot/internal/codec"
	"goal-challenge-bot/internal/model"
	"goal-challenge-bot/internal/store"
)

// RemoteStore is the remote file-storage surface the manager depends on.
// *disk.Client satisfies it; tests substitute fakes.
type RemoteStore interface {
	Download(ctx context.Context, path string) ([]byte, error)
	Upload(ctx context.Context, data []byte, path string, overwrite bool) error
	Copy(ctx context.Context, from, to string) error
	Stat(ctx context.Context, path string) (*Info, error)
}

// Info is the remote file metadata the manager inspects.
type Info struct {
	Modified time.Time
}

// ErrorClassifier tells the manager how to recognize not-found and
// locked/conflict remote errors, keeping it decoupled from the concrete
// transport.
type ErrorClassifier struct {
	IsNotFound func(error) bool
	IsLocked   func(error) bool
}

// Default timings.
const (
	defaultSyncDelay    = 60 * time.Second
	defaultUrgentDelay  = 2 * time.Second
	defaultRefreshGrace = 60 * time.Second
	remoteCallTimeout   = 45 * time.Second
)

// Options configures a Manager.
type Options struct {
	// Path is the canonical remote spreadsheet path.
	Path string
	// SyncDelay is the deferral window before a remote sync runs.
	SyncDelay time.Duration
	// UrgentDelay replaces SyncDelay when a save is urgent.
	UrgentDelay time.Duration
	// RefreshGrace is how recently the local cache must have been written
	// for RefreshFromRemote to trust it unconditionally.
	RefreshGrace time.Duration
	// Now overrides the time source. Tests use it.
	Now func() time.Time
}

// Manager is the synchronization state machine. It exclusively owns the
// cached dataset; every other component gets a copy and routes mutations
// back through SaveData.
type Manager struct {
	remote   RemoteStore
	cache    *store.Cache
	errs     ErrorClassifier
	path     string
	copyPath string

	syncDelay    time.Duration
	urgentDelay  time.Duration
	refreshGrace time.Duration
	now          func() time.Time

	mu            sync.Mutex
	timer         *time.Timer
	urgentPending bool
	closed        bool
	// inflight lets Close wait for a sync job that already started.
	inflight sync.WaitGroup
}

// CopyPath derives the working-copy path from the canonical path by
// inserting "_copy" before the extension.
func CopyPath(path string) string {
	if i := strings.LastIndex(path, "."); i > 0 {
		return path[:i] + "_copy" + path[i:]
	}
	return path + "_copy"
}

// NewManager creates a Manager over the given remote store and local cache.
func NewManager(remote RemoteStore, cache *store.Cache, errs ErrorClassifier, opts Options) *Manager {
	m := &Manager{
		remote:       remote,
		cache:        cache,
		errs:         errs,
		path:         opts.Path,
		copyPath:     CopyPath(opts.Path),
		syncDelay:    opts.SyncDelay,
		urgentDelay:  opts.UrgentDelay,
		refreshGrace: opts.RefreshGrace,
		now:          opts.Now,
	}
	if m.syncDelay <= 0 {
		m.syncDelay = defaultSyncDelay
	}
	if m.urgentDelay <= 0 {
		m.urgentDelay = defaultUrgentDelay
	}
	if m.refreshGrace <= 0 {
		m.refreshGrace = defaultRefreshGrace
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.errs.IsNotFound == nil {
		m.errs.IsNotFound = func(error) bool { return false }
	}
	if m.errs.IsLocked == nil {
		m.errs.IsLocked = func(error) bool { return false }
	}
	return m
}

// GetAllData returns the current dataset. Reads are served from the local
// cache whenever a record exists, regardless of age; the remote store is
// only consulted on first boot when the cache is empty. Remote failures
// degrade to an empty dataset, never to an error: the bot and API layers
// always get something usable.
func (m *Manager) GetAllData(ctx context.Context) *model.Dataset {
	raw, ok, err := m.cache.Get(store.DatasetKey)
	if err != nil {
		log.Error().Err(err).Msg("Local cache read failed")
	}
	if ok {
		return unmarshalDataset(raw)
	}

	data := m.bootstrap(ctx)
	if err := m.persistLocal(data); err != nil {
		log.Error().Err(err).Msg("Failed to populate local cache from remote")
	}
	return data
}

// bootstrap fetches the dataset from remote storage for a cold cache:
// working copy first, then the canonical file, then a brand-new empty
// document uploaded to both paths. Any failure yields an empty dataset.
func (m *Manager) bootstrap(ctx context.Context) *model.Dataset {
	ctx, cancel := context.WithTimeout(ctx, remoteCallTimeout)
	defer cancel()

	raw, err := m.remote.Download(ctx, m.copyPath)
	if err == nil {
		return codec.Decode(raw)
	}
	if !m.errs.IsNotFound(err) {
		log.Error().Err(err).Str("path", m.copyPath).Msg("Bootstrap download failed, starting empty")
		return model.NewDataset()
	}

	// No working copy yet; fall back to the canonical file and seed the
	// working copy from it.
	raw, err = m.remote.Download(ctx, m.path)
	if err == nil {
		if upErr := m.remote.Upload(ctx, raw, m.copyPath, true); upErr != nil {
			log.Warn().Err(upErr).Msg("Failed to seed working copy from canonical file")
		}
		return codec.Decode(raw)
	}
	if !m.errs.IsNotFound(err) {
		log.Error().Err(err).Str("path", m.path).Msg("Bootstrap download failed, starting empty")
		return model.NewDataset()
	}

	// Neither file exists: create a fresh empty document on both paths.
	log.Info().Str("path", m.path).Msg("No remote spreadsheet found, creating a new one")
	data := model.NewDataset()
	encoded, err := codec.Encode(data)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode empty document")
		return data
	}
	if err := m.remote.Upload(ctx, encoded, m.path, true); err != nil {
		log.Error().Err(err).Msg("Failed to create canonical spreadsheet")
		return data
	}
	if err := m.remote.Copy(ctx, m.path, m.copyPath); err != nil {
		// Copy may fail independently; uploading directly is equivalent.
		if err := m.remote.Upload(ctx, encoded, m.copyPath, true); err != nil {
			log.Warn().Err(err).Msg("Failed to create working copy")
		}
	}
	return data
}

// SaveData persists the dataset to the local cache synchronously and
// schedules a deferred remote sync. The local write is authoritative for
// all subsequent reads; its failure is the only error surfaced. urgent
// shortens the deferral window and forces the next sync cycle to update
// the canonical file as well.
func (m *Manager) SaveData(ctx context.Context, data *model.Dataset, urgent bool) error {
	if err := m.persistLocal(data); err != nil {
		return fmt.Errorf("failed to persist dataset locally: %w", err)
	}
	m.schedule(urgent)
	return nil
}

// schedule arms the deferred sync timer. Only one pending timer exists per
// process; a newer schedule supersedes an unstarted one. A job that already
// began executing is never cancelled.
func (m *Manager) schedule(urgent bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.urgentPending = m.urgentPending || urgent

	delay := m.syncDelay
	if urgent {
		delay = m.urgentDelay
	}
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(delay, m.runDeferredSync)
	log.Debug().Dur("delay", delay).Bool("urgent", urgent).Msg("Remote sync scheduled")
}

// runDeferredSync is the timer callback. Errors are logged and swallowed;
// nothing here may crash the process or block the next save.
func (m *Manager) runDeferredSync() {
	m.mu.Lock()
	m.timer = nil
	urgent := m.urgentPending
	m.inflight.Add(1)
	m.mu.Unlock()
	defer m.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), remoteCallTimeout)
	defer cancel()
	m.syncOnce(ctx, urgent)
}

// syncOnce pushes the latest cached dataset to the working copy and, when
// an urgent save happened since the last successful canonical sync, copies
// the working copy onto the canonical file. A locked canonical file is
// skipped softly: the working copy remains the durable source of truth and
// the canonical update happens on a later cycle.
func (m *Manager) syncOnce(ctx context.Context, urgent bool) {
	// Re-read the cache rather than trusting any in-memory snapshot, so a
	// coalesced burst of edits uploads its latest state.
	raw, ok, err := m.cache.Get(store.DatasetKey)
	if err != nil || !ok {
		log.Error().Err(err).Msg("Deferred sync found no cached dataset")
		return
	}
	data := unmarshalDataset(raw)

	encoded, err := codec.Encode(data)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode dataset for remote sync")
		return
	}
	if err := m.remote.Upload(ctx, encoded, m.copyPath, true); err != nil {
		log.Error().Err(err).Str("path", m.copyPath).Msg("Failed to upload working copy")
		return
	}
	log.Debug().Str("path", m.copyPath).Msg("Working copy uploaded")

	if !urgent {
		return
	}
	if err := m.remote.Copy(ctx, m.copyPath, m.path); err != nil {
		if m.errs.IsLocked(err) {
			log.Warn().Str("path", m.path).
				Msg("Canonical file is locked (likely open in a browser), deferring canonical sync")
		} else {
			log.Error().Err(err).Str("path", m.path).Msg("Failed to sync canonical file")
		}
		return
	}
	m.mu.Lock()
	m.urgentPending = false
	m.mu.Unlock()
	log.Info().Str("path", m.path).Msg("Canonical file synchronized")
}

// RefreshFromRemote reconciles the local cache with a remote file that may
// have been edited out of band. Local state written within the grace window
// is assumed authoritative and the refresh becomes a no-op; otherwise the
// remote working copy replaces local state only when it is strictly newer.
// Last writer wins; concurrent edits on both sides since the last sync can
// be lost, which is a deliberate tradeoff for single-admin usage.
func (m *Manager) RefreshFromRemote(ctx context.Context) error {
	lastWrite, ok, err := m.cache.LastWrite(store.DatasetKey)
	if err != nil {
		return fmt.Errorf("failed to read cache timestamp: %w", err)
	}
	if ok && m.now().Sub(lastWrite) < m.refreshGrace {
		log.Debug().Time("last_write", lastWrite).Msg("Local cache is fresh, skipping remote refresh")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, remoteCallTimeout)
	defer cancel()

	info, err := m.remote.Stat(ctx, m.copyPath)
	if err != nil {
		return fmt.Errorf("failed to stat working copy: %w", err)
	}
	if ok && !info.Modified.After(lastWrite) {
		log.Debug().Msg("Remote working copy is not newer than local cache, skipping refresh")
		return nil
	}

	raw, err := m.remote.Download(ctx, m.copyPath)
	if err != nil {
		return fmt.Errorf("failed to download working copy: %w", err)
	}
	data := codec.Decode(raw)
	if err := m.persistLocal(data); err != nil {
		return fmt.Errorf("failed to persist refreshed dataset: %w", err)
	}
	log.Info().Time("remote_modified", info.Modified).Msg("Local cache refreshed from remote")
	return nil
}

// Flush runs one remote sync immediately with the current urgent state.
// Used on shutdown and by the admin refresh path.
func (m *Manager) Flush(ctx context.Context) {
	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	urgent := m.urgentPending
	m.mu.Unlock()
	m.syncOnce(ctx, urgent)
}

// Close stops scheduling, flushes a pending sync and waits for any
// in-flight job to finish. In-flight uploads run to completion or failure,
// never truncated.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	m.closed = true
	pending := m.timer != nil
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	urgent := m.urgentPending
	m.mu.Unlock()

	if pending {
		m.syncOnce(ctx, urgent)
	}
	m.inflight.Wait()
}

// persistLocal normalizes and writes the dataset to the local cache.
func (m *Manager) persistLocal(data *model.Dataset) error {
	data.Normalize()
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}
	return m.cache.Set(store.DatasetKey, string(raw))
}

// unmarshalDataset decodes a cached JSON dataset. Malformed cache content
// degrades to an empty dataset, matching the codec's lenient contract.
func unmarshalDataset(raw string) *model.Dataset {
	data := model.NewDataset()
	if err := json.Unmarshal([]byte(raw), data); err != nil {
		log.Error().Err(err).Msg("Malformed cached dataset, falling back to empty")
		return model.NewDataset()
	}
	data.Normalize()
	return data
}
