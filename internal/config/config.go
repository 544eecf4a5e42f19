// Package config loads specsync configuration via viper, merging defaults,
// an optional YAML config file, and SPECSYNC_-prefixed environment
// variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete specsync configuration.
type Config struct {
	Store     StoreConfig     `mapstructure:"store"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Watch     WatchConfig     `mapstructure:"watch"`
	Broadcast BroadcastConfig `mapstructure:"broadcast"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// StoreConfig controls the backing store and write path.
type StoreConfig struct {
	// Path is the location of the specification document.
	Path string `mapstructure:"path"`
	// LockTimeoutMs bounds the wait for the controller write lock.
	LockTimeoutMs int `mapstructure:"lock_timeout_ms"`
	// StateDir is where the planner persists its task graph snapshot.
	StateDir string `mapstructure:"state_dir"`
}

// LedgerConfig controls version history retention.
type LedgerConfig struct {
	// Capacity is the number of version entries retained. Fixed at
	// startup; older entries are evicted ring-buffer style.
	Capacity int `mapstructure:"capacity"`
}

// WatchConfig controls the file watch adapter.
type WatchConfig struct {
	// Enabled turns the out-of-band edit watcher on.
	Enabled bool `mapstructure:"enabled"`
	// DebounceMs is the quiet window collapsing filesystem event bursts
	// into one reload.
	DebounceMs int `mapstructure:"debounce_ms"`
}

// BroadcastConfig controls remote observer fan-out.
type BroadcastConfig struct {
	// ProbeIntervalSec is the liveness probe cadence.
	ProbeIntervalSec int `mapstructure:"probe_interval_sec"`
	// SendTimeoutMs bounds each per-connection delivery.
	SendTimeoutMs int `mapstructure:"send_timeout_ms"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR.
	Level string `mapstructure:"level"`
	// Path is the log file location; empty logs to stderr.
	Path string `mapstructure:"path"`
}

// SetDefaults registers default values with viper. Call before reading
// the config file so defaults apply even without one.
func SetDefaults() {
	viper.SetDefault("store.path", filepath.Join(".specsync", "spec.json"))
	viper.SetDefault("store.lock_timeout_ms", 5000)
	viper.SetDefault("store.state_dir", ".specsync")
	viper.SetDefault("ledger.capacity", 10)
	viper.SetDefault("watch.enabled", true)
	viper.SetDefault("watch.debounce_ms", 750)
	viper.SetDefault("broadcast.probe_interval_sec", 30)
	viper.SetDefault("broadcast.send_timeout_ms", 100)
	viper.SetDefault("logging.level", "INFO")
	viper.SetDefault("logging.path", "")
}

// Load unmarshals the current viper state into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration without consulting viper.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Path:          filepath.Join(".specsync", "spec.json"),
			LockTimeoutMs: 5000,
			StateDir:      ".specsync",
		},
		Ledger:    LedgerConfig{Capacity: 10},
		Watch:     WatchConfig{Enabled: true, DebounceMs: 750},
		Broadcast: BroadcastConfig{ProbeIntervalSec: 30, SendTimeoutMs: 100},
		Logging:   LoggingConfig{Level: "INFO"},
	}
}

// LockTimeout returns the configured write lock bound as a duration.
func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.Store.LockTimeoutMs) * time.Millisecond
}

// Debounce returns the configured watch debounce window as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}

// ProbeInterval returns the configured liveness probe cadence.
func (c *Config) ProbeInterval() time.Duration {
	return time.Duration(c.Broadcast.ProbeIntervalSec) * time.Second
}

// SendTimeout returns the configured per-connection send bound.
func (c *Config) SendTimeout() time.Duration {
	return time.Duration(c.Broadcast.SendTimeoutMs) * time.Millisecond
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "specsync")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".specsync"
	}
	return filepath.Join(home, ".config", "specsync")
}
