package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "90days_10goals/track.xlsx", cfg.Disk.FilePath)
	assert.Equal(t, "data/cache.db", cfg.Cache.Path)
	assert.Equal(t, 60*time.Second, cfg.Sync.Delay)
	assert.Equal(t, 2*time.Second, cfg.Sync.UrgentDelay)
	assert.Equal(t, 60*time.Second, cfg.Sync.RefreshGrace)
	assert.Equal(t, ":8080", cfg.API.Addr)
	assert.Equal(t, "admin", cfg.Admin.Username)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
bot:
  token: bot-token
disk:
  token: disk-token
  file_path: custom/path.xlsx
sync:
  delay: 30s
admin:
  ids: [1, 2]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "bot-token", cfg.Bot.Token)
	assert.Equal(t, "disk-token", cfg.Disk.Token)
	assert.Equal(t, "custom/path.xlsx", cfg.Disk.FilePath)
	assert.Equal(t, 30*time.Second, cfg.Sync.Delay)
	// Unset keys keep their defaults.
	assert.Equal(t, 2*time.Second, cfg.Sync.UrgentDelay)
	assert.Equal(t, []int64{1, 2}, cfg.Admin.IDs)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	yaml := "bot:\n  token: from-file\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("BOT_TOKEN", "from-env")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Bot.Token)
}

func TestIsAdmin(t *testing.T) {
	cfg := &Config{Admin: AdminConfig{IDs: []int64{10, 20}}}
	assert.True(t, cfg.IsAdmin(10))
	assert.False(t, cfg.IsAdmin(30))
}
