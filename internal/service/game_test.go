package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goal-challenge-bot/internal/gamedata"
	"goal-challenge-bot/internal/model"
	"goal-challenge-bot/internal/store"
)

var errStubNotFound = errors.New("stub: not found")

// stubRemote has no files and accepts every write. The manager bootstraps an
// empty dataset from it and the tests run entirely against the local cache.
type stubRemote struct{}

func (stubRemote) Download(context.Context, string) ([]byte, error) { return nil, errStubNotFound }
func (stubRemote) Upload(context.Context, []byte, string, bool) error {
	return nil
}
func (stubRemote) Copy(context.Context, string, string) error { return nil }
func (stubRemote) Stat(context.Context, string) (*gamedata.Info, error) {
	return nil, errStubNotFound
}

func newTestService(t *testing.T) *GameService {
	t.Helper()
	cache, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	mgr := gamedata.NewManager(stubRemote{}, cache, gamedata.ErrorClassifier{
		IsNotFound: func(err error) bool { return errors.Is(err, errStubNotFound) },
	}, gamedata.Options{
		Path:        "test/track.xlsx",
		SyncDelay:   time.Hour,
		UrgentDelay: time.Hour,
	})
	return NewGameService(mgr)
}

// setDay pins the challenge day via the manual override setting.
func setDay(t *testing.T, s *GameService, day int) {
	t.Helper()
	require.NoError(t, s.Mutate(context.Background(), false, func(d *model.Dataset) error {
		d.Settings.SetInt(model.SettingCurrentDay, int64(day))
		return nil
	}))
}

func TestRegister(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, 1, "alice", "Alice A", "Runner"))
	assert.True(t, s.IsRegistered(ctx, 1))

	err := s.Register(ctx, 1, "alice", "Alice A", "Runner")
	assert.ErrorIs(t, err, ErrAlreadyInGame)
}

func TestSetGoal(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	require.NoError(t, s.Register(ctx, 1, "alice", "Alice A", "Runner"))

	require.NoError(t, s.SetGoal(ctx, 1, 3, "  run 5k  "))

	goals := s.Goals(ctx, 1)
	require.Len(t, goals, model.NumGoals)
	assert.Equal(t, "run 5k", goals[2], "goal text is trimmed")

	assert.ErrorIs(t, s.SetGoal(ctx, 1, 0, "x"), ErrInvalidGoalNum)
	assert.ErrorIs(t, s.SetGoal(ctx, 1, model.NumGoals+1, "x"), ErrInvalidGoalNum)
	assert.ErrorIs(t, s.SetGoal(ctx, 999, 1, "x"), ErrNotRegistered)
}

func TestGoalsForUnknownUser(t *testing.T) {
	s := newTestService(t)

	goals := s.Goals(context.Background(), 42)
	require.Len(t, goals, model.NumGoals)
	for _, g := range goals {
		assert.Empty(t, g)
	}
}

func TestSubmitReport(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.SubmitReport(ctx, 1, map[int]string{1: "done"}, false)
	assert.ErrorIs(t, err, ErrNotRegistered)

	require.NoError(t, s.Register(ctx, 1, "alice", "Alice A", "Runner"))
	setDay(t, s, 5)

	day, err := s.SubmitReport(ctx, 1, map[int]string{1: "done", 3: "half"}, false)
	require.NoError(t, err)
	assert.Equal(t, 5, day)

	r := s.Data(ctx).Report(1, 5)
	require.NotNil(t, r)
	assert.Equal(t, "done", r.Progress[0])
	assert.Equal(t, "half", r.Progress[2])

	// Same-day resubmission updates in place.
	_, err = s.SubmitReport(ctx, 1, map[int]string{1: "redone"}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Data(ctx).ReportsCount(1))
	assert.Equal(t, "redone", s.Data(ctx).Report(1, 5).Progress[0])
}

func TestStats(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.Stats(ctx, 1)
	assert.ErrorIs(t, err, ErrNotRegistered)

	require.NoError(t, s.Register(ctx, 1, "alice", "Alice A", "Runner"))
	require.NoError(t, s.SetGoal(ctx, 1, 1, "run"))
	require.NoError(t, s.SetGoal(ctx, 1, 2, "read"))

	setDay(t, s, 2)
	_, err = s.SubmitReport(ctx, 1, map[int]string{1: "done"}, false)
	require.NoError(t, err)
	setDay(t, s, 3)
	_, err = s.SubmitReport(ctx, 1, nil, true)
	require.NoError(t, err)

	stats, err := s.Stats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Runner", stats.GameName)
	assert.Equal(t, model.StatusActive, stats.Status)
	assert.Equal(t, 3, stats.CurrentDay)
	assert.Equal(t, 2, stats.TotalReports)
	assert.Equal(t, 1, stats.RestDays)
	assert.Equal(t, 2, stats.GoalsSet)
}

func TestCommunity(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, 1, "a", "A", "A"))
	require.NoError(t, s.Register(ctx, 2, "b", "B", "B"))
	require.NoError(t, s.Register(ctx, 3, "c", "C", "C"))
	setDay(t, s, 4)

	_, err := s.SubmitReport(ctx, 1, map[int]string{1: "x"}, false)
	require.NoError(t, err)
	require.NoError(t, s.Mutate(ctx, false, func(d *model.Dataset) error {
		d.RemoveParticipant(3)
		return nil
	}))

	stats := s.Community(ctx)
	assert.Equal(t, 4, stats.CurrentDay)
	assert.Equal(t, 3, stats.TotalParticipants)
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, 1, stats.Removed)
	assert.Equal(t, 1, stats.ReportsToday)
	assert.Equal(t, 1, stats.TotalReports)
}

func TestMissingToday(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, 1, "a", "A", "A"))
	require.NoError(t, s.Register(ctx, 2, "b", "B", "B"))
	setDay(t, s, 7)

	_, err := s.SubmitReport(ctx, 1, map[int]string{1: "x"}, false)
	require.NoError(t, err)

	missing, day := s.MissingToday(ctx)
	assert.Equal(t, 7, day)
	require.Len(t, missing, 1)
	assert.Equal(t, int64(2), missing[0].UserID)
}

func TestRemoveInactiveSkipsDayOne(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, 1, "a", "A", "A"))
	setDay(t, s, 1)

	result, err := s.RemoveInactive(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Removed())
	assert.True(t, s.Data(ctx).Participant(1).Status == model.StatusActive)
}

func TestRemoveInactiveSweep(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, 1, "none", "No Report", "A"))
	require.NoError(t, s.Register(ctx, 2, "rest", "Rest Day", "B"))
	require.NoError(t, s.Register(ctx, 3, "low", "One Goal", "C"))
	require.NoError(t, s.Register(ctx, 4, "ok", "Two Goals", "D"))
	setDay(t, s, 10)

	_, err := s.SubmitReport(ctx, 2, nil, true)
	require.NoError(t, err)
	_, err = s.SubmitReport(ctx, 3, map[int]string{1: "only one"}, false)
	require.NoError(t, err)
	_, err = s.SubmitReport(ctx, 4, map[int]string{1: "one", 2: "two"}, false)
	require.NoError(t, err)

	result, err := s.RemoveInactive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, result.Day)
	assert.Equal(t, 2, result.Removed())
	require.Len(t, result.NoReport, 1)
	assert.Equal(t, int64(1), result.NoReport[0].UserID)
	require.Len(t, result.LowProgress, 1)
	assert.Equal(t, int64(3), result.LowProgress[0].UserID)

	data := s.Data(ctx)
	assert.Equal(t, model.StatusRemoved, data.Participant(1).Status)
	assert.Equal(t, model.StatusActive, data.Participant(2).Status)
	assert.Equal(t, model.StatusRemoved, data.Participant(3).Status)
	assert.Equal(t, model.StatusActive, data.Participant(4).Status)
}

func TestUpdateSettings(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.UpdateSettings(ctx, map[string]string{
		model.SettingReminderTime: "19:30",
		model.SettingChatID:       "-100123",
	}))
	settings := s.Settings(ctx)
	assert.Equal(t, "19:30", settings[model.SettingReminderTime])
	assert.Equal(t, "-100123", settings[model.SettingChatID])

	// Empty value deletes the key.
	require.NoError(t, s.UpdateSettings(ctx, map[string]string{model.SettingChatID: ""}))
	_, ok := s.Settings(ctx)[model.SettingChatID]
	assert.False(t, ok)
}

func TestSaveChatConfig(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.SaveChatConfig(ctx, -100555, 12))
	settings := s.Settings(ctx)
	chatID, ok := settings.ChatID()
	require.True(t, ok)
	assert.Equal(t, int64(-100555), chatID)
	threadID, ok := settings.ThreadID()
	require.True(t, ok)
	assert.Equal(t, int64(12), threadID)

	// Zero IDs leave the stored config untouched.
	require.NoError(t, s.SaveChatConfig(ctx, 0, 0))
	chatID, ok = s.Settings(ctx).ChatID()
	require.True(t, ok)
	assert.Equal(t, int64(-100555), chatID)
}

func TestMutatePropagatesError(t *testing.T) {
	s := newTestService(t)
	boom := errors.New("rejected")

	err := s.Mutate(context.Background(), false, func(*model.Dataset) error { return boom })
	assert.ErrorIs(t, err, boom)
}
