// Package config provides configuration loading and management for guardflow.
//
// Configuration is loaded using Viper, supporting YAML config files and environment
// variable overrides. The package provides defaults that work out of the box: an
// in-memory backend, the default session and text logging at info level.
//
// Key types:
//   - [Config] is the root configuration container with all settings
//   - [Loader] handles Viper-based configuration loading
//   - [StorageConfig] selects and configures the persistence backend
//   - [EngineConfig] tunes the navigation engine
//
// Configuration priority (highest to lowest):
//  1. Environment variables (GUARDFLOW_ prefix, dots become underscores,
//     e.g. GUARDFLOW_STORAGE_BACKEND)
//  2. Config file specified by GUARDFLOW_CONFIG_PATH or --config
//  3. User config directory (platform-standard):
//     - Linux: ~/.config/guardflow/config.yaml
//     - macOS: ~/Library/Application Support/guardflow/config.yaml
//     - Windows: %APPDATA%\guardflow\config.yaml
//  4. ./guardflow.yaml
//  5. [DefaultConfig] defaults
package config

import (
	"time"

	"guardflow/internal/storage"
	"guardflow/internal/workflow"
)

// Storage backend names accepted by [StorageConfig.Backend].
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config represents the root configuration structure.
//
// This is the main configuration container loaded by [Loader] and used throughout
// the application. Use [DefaultConfig] to get sensible defaults.
type Config struct {
	// Session identifies the browsing session whose workflows the CLI drives.
	// The HTTP server ignores it and assigns one session per cookie.
	Session string `mapstructure:"session" validate:"required"`

	// Storage selects the persistence backend.
	Storage StorageConfig `mapstructure:"storage"`

	// Engine tunes the navigation engine.
	Engine EngineConfig `mapstructure:"engine"`

	// Content configures step-text overrides.
	Content ContentConfig `mapstructure:"content"`

	// Server configures the HTTP surface.
	Server ServerConfig `mapstructure:"server"`

	// Log configures structured logging.
	Log LogConfig `mapstructure:"log"`
}

// StorageConfig selects the backend holding state records and audit logs.
type StorageConfig struct {
	// Backend is one of memory, file, redis or sqlite.
	// Default: "memory". Note that the memory backend forgets everything
	// between CLI invocations.
	Backend string `mapstructure:"backend" validate:"oneof=memory file redis sqlite"`

	// Dir is the root directory of the file backend.
	// Default: ".guardflow". GUARDFLOW_STORAGE_DIR also overrides it.
	Dir string `mapstructure:"dir"`

	// Redis configures the redis backend.
	Redis RedisConfig `mapstructure:"redis"`

	// SQLite configures the sqlite backend.
	SQLite SQLiteConfig `mapstructure:"sqlite"`
}

// RedisConfig contains redis connection settings.
type RedisConfig struct {
	// Addr is the host:port of the redis server.
	Addr string `mapstructure:"addr"`

	// Password is the optional AUTH password.
	Password string `mapstructure:"password"`

	// DB is the logical database number.
	DB int `mapstructure:"db" validate:"gte=0"`

	// SessionTTL expires every key of a session after this idle period.
	// Zero keeps keys forever. Default: 24h.
	SessionTTL time.Duration `mapstructure:"session_ttl" validate:"gte=0"`
}

// SQLiteConfig contains sqlite settings.
type SQLiteConfig struct {
	// Path is the database file, or ":memory:".
	// Default: "guardflow.db"
	Path string `mapstructure:"path" validate:"required"`
}

// EngineConfig tunes the navigation engine.
type EngineConfig struct {
	// ConflictDetection makes a state write fail when another writer changed
	// the record since it was read. Default: false (last writer wins).
	ConflictDetection bool `mapstructure:"conflict_detection"`

	// AuditDisplayLimit is the number of audit entries shown on a page.
	// Zero or less shows the whole log. Default: 8.
	AuditDisplayLimit int `mapstructure:"audit_display_limit"`
}

// ContentConfig configures step-text overrides.
type ContentConfig struct {
	// Path is a CSV or YAML override file. Empty disables overrides.
	Path string `mapstructure:"path"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	// Addr is the listen address. Default: ":8080".
	Addr string `mapstructure:"addr" validate:"required"`

	// SecureCookie marks the session cookie Secure. Enable behind TLS.
	SecureCookie bool `mapstructure:"secure_cookie"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn or error. Default: "info".
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`

	// Format is text or json. Default: "text".
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// DefaultConfig returns a Config with sensible default values.
//
// These defaults are used when no config file is found or when specific
// values are not overridden.
func DefaultConfig() *Config {
	return &Config{
		Session: storage.DefaultSession,
		Storage: StorageConfig{
			Backend: BackendMemory,
			Dir:     ".guardflow",
			Redis: RedisConfig{
				Addr:       "localhost:6379",
				SessionTTL: 24 * time.Hour,
			},
			SQLite: SQLiteConfig{
				Path: "guardflow.db",
			},
		},
		Engine: EngineConfig{
			AuditDisplayLimit: workflow.DefaultAuditDisplayLimit,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// EngineOptions translates the engine settings into workflow options.
func (c *Config) EngineOptions() []workflow.Option {
	return []workflow.Option{
		workflow.WithAuditDisplayLimit(c.Engine.AuditDisplayLimit),
		workflow.WithConflictDetection(c.Engine.ConflictDetection),
	}
}
