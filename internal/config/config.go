// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot   BotConfig   `mapstructure:"bot"`
	Disk  DiskConfig  `mapstructure:"disk"`
	Cache CacheConfig `mapstructure:"cache"`
	Sync  SyncConfig  `mapstructure:"sync"`
	Admin AdminConfig `mapstructure:"admin"`
	API   APIConfig   `mapstructure:"api"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// DiskConfig holds Yandex Disk remote storage configuration.
type DiskConfig struct {
	Token string `mapstructure:"token"`
	// FilePath is the canonical spreadsheet path on the remote store. The
	// working-copy path is derived from it by a fixed suffix.
	FilePath string `mapstructure:"file_path"`
}

// CacheConfig holds the durable local cache configuration.
type CacheConfig struct {
	Path string `mapstructure:"path"`
}

// SyncConfig holds deferred remote sync timings.
type SyncConfig struct {
	Delay        time.Duration `mapstructure:"delay"`
	UrgentDelay  time.Duration `mapstructure:"urgent_delay"`
	RefreshGrace time.Duration `mapstructure:"refresh_grace"`
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
	// Username/Password protect the admin section of the HTTP API.
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// APIConfig holds the HTTP API server configuration.
type APIConfig struct {
	Addr      string `mapstructure:"addr"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. BOT_TOKEN, DISK_TOKEN, CACHE_PATH.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we can use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("disk.file_path", "90days_10goals/track.xlsx")
	v.SetDefault("cache.path", "data/cache.db")

	v.SetDefault("sync.delay", "60s")
	v.SetDefault("sync.urgent_delay", "2s")
	v.SetDefault("sync.refresh_grace", "60s")

	v.SetDefault("api.addr", ":8080")
	v.SetDefault("admin.username", "admin")
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}
