// Package config loads the reconciliation daemon's configuration from a
// config file, an optional .env file, and environment variables, in that
// increasing order of priority.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all daemon configuration.
type Config struct {
	Mount       MountConfig       `mapstructure:"mount"`
	Store       StoreConfig       `mapstructure:"store"`
	Catalogue   CatalogueConfig   `mapstructure:"catalogue"`
	Debrid      DebridConfig      `mapstructure:"debrid"`
	MediaServer MediaServerConfig `mapstructure:"media_server"`
	Repair      RepairConfig      `mapstructure:"repair"`
	Webhook     WebhookConfig     `mapstructure:"webhook"`
	Scan        ScanConfig        `mapstructure:"scan"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// MountConfig controls where the debrid mount is read and how its paths are
// rewritten for the symlink targets.
type MountConfig struct {
	Root         string `mapstructure:"root"`
	ConsumerRoot string `mapstructure:"consumer_root"`
	FilmsDir     string `mapstructure:"films_dir"`
	ShowsDir     string `mapstructure:"shows_dir"`
}

// StoreConfig addresses the external record store.
type StoreConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout_seconds"`
}

// CatalogueConfig addresses the external metadata catalogue.
type CatalogueConfig struct {
	BaseURL         string  `mapstructure:"base_url"`
	APIKey          string  `mapstructure:"api_key"`
	Timeout         int     `mapstructure:"timeout_seconds"`
	RateLimitPerSec float64 `mapstructure:"rate_limit_per_sec"`
}

// DebridConfig addresses the external debrid service.
type DebridConfig struct {
	BaseURL         string  `mapstructure:"base_url"`
	APIKey          string  `mapstructure:"api_key"`
	Timeout         int     `mapstructure:"timeout_seconds"`
	RateLimitPerSec float64 `mapstructure:"rate_limit_per_sec"`
	MinFileSizeMB   int     `mapstructure:"min_file_size_mb"`
}

// MediaServerConfig addresses the optional library-refresh webhook.
type MediaServerConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
}

// RepairConfig governs Phase C's re-add-by-hash behaviour.
type RepairConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxAttempts   int  `mapstructure:"max_attempts"`
	MinFileSizeMB int  `mapstructure:"min_file_size_mb"`
}

// WebhookConfig governs the inbound trigger/health/metrics server.
type WebhookConfig struct {
	Port int `mapstructure:"port"`
}

// ScanConfig governs the scan loop itself.
type ScanConfig struct {
	IntervalSeconds int  `mapstructure:"interval_seconds"`
	CleanupArchived bool `mapstructure:"cleanup_archived"`
}

// LoggingConfig mirrors internal/logger.Config's shape for mapstructure binding.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Load reads configuration from file, .env, and environment, in that
// increasing order of priority, and returns the unmarshalled Config.
// Values from .env are loaded into the process environment without
// overriding variables that are already set.
func Load(configPath string) (*Config, error) {
	for _, envFile := range []string{".env", "configs/.env"} {
		if _, err := os.Stat(envFile); err == nil {
			_ = godotenv.Load(envFile)
			break
		}
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix("RECONCILED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mount.root", "/mnt/debrid")
	v.SetDefault("mount.consumer_root", "/mnt/debrid")
	v.SetDefault("mount.films_dir", "/media/films")
	v.SetDefault("mount.shows_dir", "/media/shows")

	v.SetDefault("store.base_url", "http://127.0.0.1:8090")
	v.SetDefault("store.timeout_seconds", 15)

	v.SetDefault("catalogue.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("catalogue.timeout_seconds", 10)
	v.SetDefault("catalogue.rate_limit_per_sec", 4.0)

	v.SetDefault("debrid.base_url", "https://api.real-debrid.com/rest/1.0")
	v.SetDefault("debrid.timeout_seconds", 15)
	v.SetDefault("debrid.rate_limit_per_sec", 2.0)
	v.SetDefault("debrid.min_file_size_mb", 100)

	v.SetDefault("repair.enabled", true)
	v.SetDefault("repair.max_attempts", 3)
	v.SetDefault("repair.min_file_size_mb", 100)

	v.SetDefault("webhook.port", 8091)

	v.SetDefault("scan.interval_seconds", 300)
	v.SetDefault("scan.cleanup_archived", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("logging.compress", true)
}
