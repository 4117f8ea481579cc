package config

import (
	"os"
	"path/filepath"
)

// configDir returns the kindle-lock configuration directory.
//
// Returns: ~/.config/kindle-lock (or "." if the home directory is
// unavailable).
func configDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".config", "kindle-lock")
}

// defaultDBPath returns the default database file path.
func defaultDBPath() string {
	return filepath.Join(configDir(), "kindle-lock.db")
}

// defaultKeyPath returns the default vault key file path.
func defaultKeyPath() string {
	return filepath.Join(configDir(), "vault.key")
}

// defaultConfigPath returns the default configuration file path.
func defaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	return defaultConfigPath()
}
