package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Environment variables read by the loader.
const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "GUARDFLOW"

	// ConfigPathEnv names an explicit config file.
	ConfigPathEnv = "GUARDFLOW_CONFIG_PATH"
)

// Loader handles Viper-based configuration loading.
//
// Use [NewLoader] to create one, then [Loader.Load] for the standard search
// order or [Loader.LoadFromFile] for an explicit file.
type Loader struct {
	v        *viper.Viper
	validate *validator.Validate
}

// NewLoader creates a Loader with defaults and environment overrides registered.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultConfig())

	return &Loader{v: v, validate: validator.New()}
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("session", d.Session)
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.dir", d.Storage.Dir)
	v.SetDefault("storage.redis.addr", d.Storage.Redis.Addr)
	v.SetDefault("storage.redis.password", d.Storage.Redis.Password)
	v.SetDefault("storage.redis.db", d.Storage.Redis.DB)
	v.SetDefault("storage.redis.session_ttl", d.Storage.Redis.SessionTTL)
	v.SetDefault("storage.sqlite.path", d.Storage.SQLite.Path)
	v.SetDefault("engine.conflict_detection", d.Engine.ConflictDetection)
	v.SetDefault("engine.audit_display_limit", d.Engine.AuditDisplayLimit)
	v.SetDefault("content.path", d.Content.Path)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.secure_cookie", d.Server.SecureCookie)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load loads configuration using the standard search order.
//
// A file named by GUARDFLOW_CONFIG_PATH must exist. The user config file and
// ./guardflow.yaml are optional; without either, defaults and environment
// overrides apply.
func (l *Loader) Load() (*Config, error) {
	if path := os.Getenv(ConfigPathEnv); path != "" {
		return l.LoadFromFile(path)
	}

	for _, path := range searchPaths() {
		if _, err := os.Stat(path); err == nil {
			return l.LoadFromFile(path)
		}
	}

	return l.unmarshal()
}

// LoadFromFile loads configuration from path, with environment overrides applied on top.
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := l.check(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (l *Loader) check(cfg *Config) error {
	if err := l.validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s=%q fails %s", fe.Namespace(), fmt.Sprint(fe.Value()), fe.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Storage.Backend == BackendRedis && cfg.Storage.Redis.Addr == "" {
		return fmt.Errorf("invalid config: storage.redis.addr is required for the redis backend")
	}
	return nil
}

// ConfigDir returns the guardflow directory inside the user config directory.
// It returns "" when the platform has no user config directory.
func ConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "guardflow")
}

// DefaultConfigPath returns the user config file path, or "" when unavailable.
func DefaultConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

func searchPaths() []string {
	var paths []string
	if p := DefaultConfigPath(); p != "" {
		paths = append(paths, p)
	}
	return append(paths, "guardflow.yaml")
}
