// ABOUTME: Configuration management with storage backend selection
// ABOUTME: JSON config in the XDG config dir with environment variable overlay

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/harper/readstate/internal/storage"
)

// Config stores readstate configuration. Environment variables override
// values loaded from the config file.
type Config struct {
	// Backend selects the storage backend: "charm" (default), "sqlite",
	// or "memory".
	Backend string `json:"backend,omitempty" env:"READSTATE_BACKEND"`

	// DataDir is the root directory for data storage (sqlite backend).
	// Supports ~ expansion. Defaults to ~/.local/share/readstate.
	DataDir string `json:"data_dir,omitempty" env:"READSTATE_DATA_DIR"`

	// MaxQueueEntries bounds the pending mutation queue.
	MaxQueueEntries int `json:"max_queue_entries,omitempty" env:"READSTATE_MAX_QUEUE"`

	// LedgerCapacity bounds the processed-entry ledger.
	LedgerCapacity int `json:"ledger_capacity,omitempty" env:"READSTATE_LEDGER_CAPACITY"`

	// BaselineTTLSeconds is the counter cache freshness window.
	BaselineTTLSeconds int `json:"baseline_ttl_seconds,omitempty" env:"READSTATE_BASELINE_TTL"`

	// FlushIntervalMS is the periodic flush interval in milliseconds.
	FlushIntervalMS int `json:"flush_interval_ms,omitempty" env:"READSTATE_FLUSH_INTERVAL_MS"`

	// FeedURLs seed the baseline prober for `counts --refresh` and `sync`.
	FeedURLs []string `json:"feed_urls,omitempty" env:"READSTATE_FEED_URLS" envSeparator:","`
}

// GetBackend returns the configured backend, defaulting to "charm".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return "charm"
	}
	return c.Backend
}

// GetDataDir returns the configured data directory with ~ expanded.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return defaultDataDir()
	}
	return ExpandPath(c.DataDir)
}

// BaselineTTL returns the configured TTL as a duration, zero when unset
// (callers then apply their own default).
func (c *Config) BaselineTTL() time.Duration {
	return time.Duration(c.BaselineTTLSeconds) * time.Second
}

// FlushInterval returns the configured flush interval, zero when unset.
func (c *Config) FlushInterval() time.Duration {
	return time.Duration(c.FlushIntervalMS) * time.Millisecond
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenKV creates a storage.KV based on the configured backend.
func (c *Config) OpenKV() (storage.KV, error) {
	switch c.GetBackend() {
	case "charm":
		return storage.NewCharmKV()
	case "sqlite":
		return storage.NewSQLiteKV(filepath.Join(c.GetDataDir(), "readstate.db"))
	case "memory":
		return storage.NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown backend: %q", c.Backend)
	}
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "readstate", "config.json")
}

// Load reads config from disk and applies environment overrides.
func Load() (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(GetConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func defaultDataDir() string {
	if dataDir := os.Getenv("XDG_DATA_HOME"); dataDir != "" {
		return filepath.Join(dataDir, "readstate")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".local", "share", "readstate")
}
