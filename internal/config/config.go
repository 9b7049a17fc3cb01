// Package config provides configuration management for the risk service.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/smart-cvd-risk-server/internal/domain"
)

// Manager loads and validates application configuration using Viper.
type Manager struct {
	config *domain.Config
}

// NewManager loads configuration from file, environment and defaults.
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

func (m *Manager) loadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/cvd-risk-server/")

	viper.SetEnvPrefix("CVD_RISK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	m.setDefaults()

	// Config file is optional; defaults and environment variables apply
	// when it is absent.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

func (m *Manager) setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.rate_limit", 20.0)
	viper.SetDefault("server.rate_burst", 40)

	// Database defaults (catalog storage and migrations)
	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.database", "cvd_risk")
	viper.SetDefault("database.username", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_conns", 25)
	viper.SetDefault("database.min_conns", 2)
	viper.SetDefault("database.conn_max_lifetime", "5m")
	viper.SetDefault("database.conn_max_idle_time", "1m")
	viper.SetDefault("database.migrations_path", "migrations")

	// History defaults (evaluation audit trail)
	viper.SetDefault("history.enabled", true)
	viper.SetDefault("history.backend", "sqlite")
	viper.SetDefault("history.sqlite_path", "data/evaluations.db")

	// Cache defaults
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.max_entries", 1024)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetDatabaseConfig returns database configuration
func (m *Manager) GetDatabaseConfig() *domain.DatabaseConfig {
	return &m.config.Database
}

// GetHistoryConfig returns the audit-trail store configuration
func (m *Manager) GetHistoryConfig() *domain.HistoryConfig {
	return &m.config.History
}

// InterventionCatalog builds the intervention reference table from the
// configuration, falling back to the compiled-in defaults when the config
// supplies no table.
func (m *Manager) InterventionCatalog() *domain.InterventionCatalog {
	entries := m.config.Catalogs.Interventions
	if len(entries) == 0 {
		entries = domain.DefaultInterventions()
	}
	return domain.NewInterventionCatalog(entries)
}

// LDLTherapyCatalog builds the lipid-therapy reference table from the
// configuration, falling back to the compiled-in defaults.
func (m *Manager) LDLTherapyCatalog() *domain.LDLTherapyCatalog {
	entries := m.config.Catalogs.LDLTherapies
	if len(entries) == 0 {
		entries = domain.DefaultLDLTherapies()
	}
	return domain.NewLDLTherapyCatalog(entries)
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if config.Server.RateLimit <= 0 {
		return fmt.Errorf("invalid rate limit: %f", config.Server.RateLimit)
	}

	if config.Database.Enabled {
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if config.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if config.Database.Username == "" {
			return fmt.Errorf("database username is required")
		}
	}

	if config.History.Enabled {
		switch config.History.Backend {
		case "sqlite":
			if config.History.SQLitePath == "" {
				return fmt.Errorf("history sqlite path is required")
			}
		case "postgres":
			if !config.Database.Enabled {
				return fmt.Errorf("history backend postgres requires database.enabled")
			}
		default:
			return fmt.Errorf("invalid history backend: %s", config.History.Backend)
		}
	}

	if config.Cache.Enabled && config.Cache.MaxEntries <= 0 {
		return fmt.Errorf("invalid cache max entries: %d", config.Cache.MaxEntries)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	// Catalog overrides, when supplied, must be well-formed: unique names
	// and non-negative effect magnitudes.
	seen := map[string]bool{}
	for _, e := range config.Catalogs.Interventions {
		if e.Name == "" {
			return fmt.Errorf("intervention catalog entry with empty name")
		}
		if seen[e.Name] {
			return fmt.Errorf("duplicate intervention catalog entry: %s", e.Name)
		}
		seen[e.Name] = true
		if e.ARRLifetime < 0 || e.ARR5Yr < 0 {
			return fmt.Errorf("intervention %s has negative ARR", e.Name)
		}
	}
	seen = map[string]bool{}
	for _, e := range config.Catalogs.LDLTherapies {
		if e.Name == "" {
			return fmt.Errorf("ldl therapy catalog entry with empty name")
		}
		if seen[e.Name] {
			return fmt.Errorf("duplicate ldl therapy catalog entry: %s", e.Name)
		}
		seen[e.Name] = true
		if e.PotencyPercent < 0 || e.PotencyPercent > 100 {
			return fmt.Errorf("ldl therapy %s has potency outside 0-100", e.Name)
		}
	}

	return nil
}

// GetDatabaseConnectionString returns the key=value DSN used by database/sql.
func (m *Manager) GetDatabaseConnectionString() string {
	db := m.config.Database
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.Username, db.Password, db.Database, db.SSLMode)
}

// GetDatabaseURL returns the postgres:// URL form used by the migrator.
func (m *Manager) GetDatabaseURL() string {
	db := m.config.Database
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		db.Username, db.Password, db.Host, db.Port, db.Database, db.SSLMode)
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(viper.GetString("environment")) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(viper.GetString("environment"))
	return env == "development" || env == "dev" || env == ""
}
