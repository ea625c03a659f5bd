// Package store provides the durable local key-value cache backing the
// synchronization manager. A single SQLite file survives process restarts
// and absorbs remote-storage latency and outages.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// DatasetKey is the single logical record holding the serialized Dataset.
const DatasetKey = "all_data"

// record is one key-value row with a last-write timestamp.
type record struct {
	Key       string `gorm:"primaryKey;column:key"`
	Value     string `gorm:"column:value;not null"`
	UpdatedAt int64  `gorm:"column:updated_at;not null"`
}

func (record) TableName() string { return "kv" }

// Cache is a durable last-writer-wins key-value store. All access is
// serialized through a single SQLite connection, so concurrent writers can
// never leave a partially written record visible.
type Cache struct {
	db  *gorm.DB
	now func() time.Time
}

// Open opens (or creates) the cache database at path and migrates the
// schema.
func Open(path string) (*Cache, error) {
	if path == "" {
		return nil, errors.New("cache path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access cache connection: %w", err)
	}
	// One connection serializes concurrent in-process writers.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("failed to migrate cache schema: %w", err)
	}

	log.Debug().Str("path", path).Msg("Local cache opened")

	return &Cache{db: db, now: time.Now}, nil
}

// Get returns the value stored under key. The second return value is false
// when no record exists.
func (c *Cache) Get(key string) (string, bool, error) {
	var rec record
	err := c.db.First(&rec, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cache record: %w", err)
	}
	return rec.Value, true, nil
}

// Set stores value under key, replacing any previous value and refreshing
// the last-write timestamp. Last writer wins; there is no merge.
func (c *Cache) Set(key, value string) error {
	rec := record{Key: key, Value: value, UpdatedAt: c.now().Unix()}
	err := c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to write cache record: %w", err)
	}
	return nil
}

// LastWrite returns the time the record under key was last written. The
// second return value is false when no record exists.
func (c *Cache) LastWrite(key string) (time.Time, bool, error) {
	var rec record
	err := c.db.Select("updated_at").First(&rec, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read cache timestamp: %w", err)
	}
	return time.Unix(rec.UpdatedAt, 0), true, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
