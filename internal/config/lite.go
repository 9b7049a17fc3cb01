// Package config provides configuration management for the risk service.
// This file contains the lightweight configuration for the standalone MCP
// binary, which requires no config file and no external databases.
package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// LiteConfig is a simplified, environment-only configuration for standalone
// operation. History is stored in SQLite under the data directory.
type LiteConfig struct {
	DataDir string // base directory for the SQLite history database

	CacheMaxEntries int // evaluation result cache capacity

	LogLevel  string // debug, info, warn, error
	LogFormat string // json or text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".cvd-risk-mcp")

	return &LiteConfig{
		DataDir:         dataDir,
		CacheMaxEntries: 1024,
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// LoadLiteConfig loads configuration from environment variables.
// Falls back to defaults if not set.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	if v := os.Getenv("CVD_RISK_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("CVD_RISK_CACHE_MAX_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheMaxEntries = n
		}
	}
	if v := os.Getenv("CVD_RISK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CVD_RISK_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// EnsureDataDir creates the data directory if it does not exist.
func (c *LiteConfig) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0755)
}

// HistoryDBPath returns the path of the SQLite evaluation history database.
func (c *LiteConfig) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "evaluations.db")
}
