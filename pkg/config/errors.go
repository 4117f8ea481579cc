package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrInvalidGoal is returned when the daily percentage goal is <= 0.
	ErrInvalidGoal = errors.New("invalid daily goal: must be > 0")

	// ErrInvalidResetHour is returned when the day reset hour is outside [0, 23].
	ErrInvalidResetHour = errors.New("invalid day reset hour: must be 0-23")

	// ErrInvalidInterval is returned when the refresh interval is < 1 minute.
	ErrInvalidInterval = errors.New("invalid refresh interval: must be >= 1 minute")

	// ErrInvalidParallelism is returned when fetch parallelism is <= 0.
	ErrInvalidParallelism = errors.New("invalid parallelism: must be > 0")

	// ErrInvalidTimeout is returned when any timeout is <= 0.
	ErrInvalidTimeout = errors.New("invalid timeout: must be > 0")

	// ErrMissingBaseURL is returned when no upstream base URL is configured.
	ErrMissingBaseURL = errors.New("upstream base URL is required")

	// ErrInvalidPageSize is returned when the recent page size is <= 0.
	ErrInvalidPageSize = errors.New("invalid recent page size: must be > 0")

	// ErrInvalidPageCap is returned when the library page cap is <= 0.
	ErrInvalidPageCap = errors.New("invalid max library pages: must be > 0")

	// ErrInvalidLogLevel is returned when log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn, or error")

	// ErrInvalidLogFormat is returned when log format is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrConfigNotFound is returned when the config file is not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when the config file has invalid YAML syntax.
	ErrInvalidYAML = errors.New("invalid YAML syntax in config file")
)
