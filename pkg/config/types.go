// Package config provides configuration management for kindle-lock.
//
// Configuration is loaded from multiple sources with the following precedence:
// 1. Environment variables (highest priority)
// 2. Configuration file
// 3. Default values (lowest priority)
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Daily goal: %.1f%%\n", cfg.Goal.DailyPercentage)
package config

import (
	"time"
)

// Config represents the complete application configuration.
//
// Invariants:
// - Goal.DailyPercentage must be > 0
// - Goal.DayResetHour must be in [0, 23]
// - Refresh.Interval must be >= 1 minute
// - Refresh.Parallelism must be > 0
// - All timeouts must be > 0.
type Config struct {
	// Reading goal settings
	Goal GoalConfig `yaml:"goal"`

	// Refresh cycle settings
	Refresh RefreshConfig `yaml:"refresh"`

	// Upstream endpoint settings
	Upstream UpstreamConfig `yaml:"upstream"`

	// Storage settings
	Storage StorageConfig `yaml:"storage"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// GoalConfig contains daily reading goal settings.
type GoalConfig struct {
	// Daily goal as summed percentage-of-book read across all books
	DailyPercentage float64 `yaml:"daily_percentage"`

	// Hour of day at which the accounting day rolls over (0-23).
	// Before this hour, progress still counts toward the previous day.
	DayResetHour int `yaml:"day_reset_hour"`
}

// RefreshConfig contains refresh cycle settings.
type RefreshConfig struct {
	// How often the watch loop runs a cycle
	Interval time.Duration `yaml:"interval"`

	// Maximum concurrent per-book position fetches
	Parallelism int `yaml:"parallelism"`

	// Timeout for a single upstream HTTP request
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Timeout for the device-session-token handshake
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`

	// Bound on the interactive login wait (manual 2FA completion)
	LoginWait time.Duration `yaml:"login_wait"`
}

// UpstreamConfig contains upstream endpoint settings.
type UpstreamConfig struct {
	// Base URL of the cloud reader (scheme + host)
	BaseURL string `yaml:"base_url"`

	// Page size for the recent-items window
	RecentPageSize int `yaml:"recent_page_size"`

	// Hard cap on catalog pagination
	MaxLibraryPages int `yaml:"max_library_pages"`
}

// StorageConfig contains storage-related settings.
type StorageConfig struct {
	// Path to BoltDB database file
	DBPath string `yaml:"db_path"`

	// Path to the vault encryption key file
	KeyPath string `yaml:"key_path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level"`

	// Log output destination (stdout, stderr, file path)
	Output string `yaml:"output"`

	// Log format (text, json)
	Format string `yaml:"format"`
}

// Validate checks if the configuration satisfies all invariants.
//
// Thread-safety: This method is read-only and thread-safe.
func (c *Config) Validate() error {
	if c.Goal.DailyPercentage <= 0 {
		return ErrInvalidGoal
	}
	if c.Goal.DayResetHour < 0 || c.Goal.DayResetHour > 23 {
		return ErrInvalidResetHour
	}

	if c.Refresh.Interval < time.Minute {
		return ErrInvalidInterval
	}
	if c.Refresh.Parallelism <= 0 {
		return ErrInvalidParallelism
	}
	if c.Refresh.RequestTimeout <= 0 || c.Refresh.HandshakeTimeout <= 0 || c.Refresh.LoginWait <= 0 {
		return ErrInvalidTimeout
	}

	if c.Upstream.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if c.Upstream.RecentPageSize <= 0 {
		return ErrInvalidPageSize
	}
	if c.Upstream.MaxLibraryPages <= 0 {
		return ErrInvalidPageCap
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	return nil
}

// Default returns a configuration with sensible default values.
//
// The 30 minute refresh interval respects the upstream soft rate limit;
// going much below 15 minutes risks throttling.
func Default() *Config {
	return &Config{
		Goal: GoalConfig{
			DailyPercentage: 5.0,
			DayResetHour:    4,
		},
		Refresh: RefreshConfig{
			Interval:         30 * time.Minute,
			Parallelism:      3,
			RequestTimeout:   10 * time.Second,
			HandshakeTimeout: 15 * time.Second,
			LoginWait:        5 * time.Minute,
		},
		Upstream: UpstreamConfig{
			BaseURL:         "https://read.amazon.com",
			RecentPageSize:  10,
			MaxLibraryPages: 20,
		},
		Storage: StorageConfig{
			DBPath:  defaultDBPath(),
			KeyPath: defaultKeyPath(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			Format: "text",
		},
	}
}
