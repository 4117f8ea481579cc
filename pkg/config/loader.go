package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader provides methods for loading configuration from various sources.
type Loader interface {
	// Load loads configuration with the following precedence:
	// 1. Environment variables
	// 2. Configuration file
	// 3. Default values
	//
	// Returns the merged configuration or an error if validation fails.
	Load() (*Config, error)

	// LoadFromFile loads configuration from a specific file.
	LoadFromFile(path string) (*Config, error)
}

// loader implements the Loader interface.
type loader struct {
	configPath string
}

// NewLoader creates a new configuration loader.
//
// If configPath is empty, searches for a config file in:
// 1. ./config.yaml (current directory)
// 2. ~/.config/kindle-lock/config.yaml.
func NewLoader(configPath string) Loader {
	return &loader{configPath: configPath}
}

// Load implements Loader.Load.
func (l *loader) Load() (*Config, error) {
	cfg := Default()

	configPath := l.configPath
	if configPath == "" {
		configPath = l.findConfigFile()
	}

	if configPath != "" {
		fileCfg, err := l.LoadFromFile(configPath)
		if err != nil {
			// An explicitly specified file must load; an auto-discovered
			// one may be absent.
			if l.configPath != "" {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
		} else {
			cfg = mergeConfigs(cfg, fileCfg)
		}
	}

	cfg = applyEnvVars(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile implements Loader.LoadFromFile.
func (l *loader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return &cfg, nil
}

// findConfigFile searches for a config file in standard locations.
//
// Returns empty string if no config file is found.
func (l *loader) findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		defaultConfigPath(),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// mergeConfigs merges file configuration into default configuration.
//
// File values override defaults, but only if they are non-zero.
func mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Goal.DailyPercentage > 0 {
		result.Goal.DailyPercentage = override.Goal.DailyPercentage
	}
	if override.Goal.DayResetHour > 0 {
		result.Goal.DayResetHour = override.Goal.DayResetHour
	}

	if override.Refresh.Interval > 0 {
		result.Refresh.Interval = override.Refresh.Interval
	}
	if override.Refresh.Parallelism > 0 {
		result.Refresh.Parallelism = override.Refresh.Parallelism
	}
	if override.Refresh.RequestTimeout > 0 {
		result.Refresh.RequestTimeout = override.Refresh.RequestTimeout
	}
	if override.Refresh.HandshakeTimeout > 0 {
		result.Refresh.HandshakeTimeout = override.Refresh.HandshakeTimeout
	}
	if override.Refresh.LoginWait > 0 {
		result.Refresh.LoginWait = override.Refresh.LoginWait
	}

	if override.Upstream.BaseURL != "" {
		result.Upstream.BaseURL = override.Upstream.BaseURL
	}
	if override.Upstream.RecentPageSize > 0 {
		result.Upstream.RecentPageSize = override.Upstream.RecentPageSize
	}
	if override.Upstream.MaxLibraryPages > 0 {
		result.Upstream.MaxLibraryPages = override.Upstream.MaxLibraryPages
	}

	if override.Storage.DBPath != "" {
		result.Storage.DBPath = override.Storage.DBPath
	}
	if override.Storage.KeyPath != "" {
		result.Storage.KeyPath = override.Storage.KeyPath
	}

	if override.Logging.Level != "" {
		result.Logging.Level = override.Logging.Level
	}
	if override.Logging.Output != "" {
		result.Logging.Output = override.Logging.Output
	}
	if override.Logging.Format != "" {
		result.Logging.Format = override.Logging.Format
	}

	return &result
}

// applyEnvVars applies environment variable overrides to the configuration.
//
// Supported environment variables:
//   - KINDLE_LOCK_GOAL: Daily percentage goal
//   - KINDLE_LOCK_RESET_HOUR: Day reset hour
//   - KINDLE_LOCK_DB: Path to database file
//   - KINDLE_LOCK_BASE_URL: Upstream base URL
//   - KINDLE_LOCK_LOG_LEVEL: Log level
func applyEnvVars(cfg *Config) *Config {
	result := *cfg

	if goal := os.Getenv("KINDLE_LOCK_GOAL"); goal != "" {
		if v, err := strconv.ParseFloat(goal, 64); err == nil {
			result.Goal.DailyPercentage = v
		}
	}

	if hour := os.Getenv("KINDLE_LOCK_RESET_HOUR"); hour != "" {
		if v, err := strconv.Atoi(hour); err == nil {
			result.Goal.DayResetHour = v
		}
	}

	if dbPath := os.Getenv("KINDLE_LOCK_DB"); dbPath != "" {
		result.Storage.DBPath = dbPath
	}

	if baseURL := os.Getenv("KINDLE_LOCK_BASE_URL"); baseURL != "" {
		result.Upstream.BaseURL = baseURL
	}

	if logLevel := os.Getenv("KINDLE_LOCK_LOG_LEVEL"); logLevel != "" {
		result.Logging.Level = strings.ToLower(logLevel)
	}

	return &result
}

// Load is a convenience function that creates a loader and loads configuration.
func Load() (*Config, error) {
	return NewLoader("").Load()
}

// LoadFromFile is a convenience function that loads configuration from a file.
func LoadFromFile(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// Save writes the configuration to a YAML file.
//
// Creates parent directories if they don't exist.
// File is created with 0600 permissions (read/write for owner only).
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
