package cli

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"guardflow/internal/config"
	"guardflow/internal/content"
	"guardflow/internal/demo"
	"guardflow/internal/output"
	"guardflow/internal/storage"
	"guardflow/internal/storage/file"
	"guardflow/internal/storage/memory"
	redisstore "guardflow/internal/storage/redis"
	"guardflow/internal/storage/sqlite"
	"guardflow/internal/workflow"
)

// App holds the dependencies shared by every command.
//
// Fields left nil are built from configuration before the first command runs,
// so tests can inject a memory backend and a buffered printer.
type App struct {
	// Config is the loaded configuration.
	Config *config.Config

	// Backend stores state records and audit logs.
	Backend storage.Backend

	// Content holds optional step-text overrides.
	Content *content.Overrides

	// Printer renders command output.
	Printer *output.Printer

	// Logger is the structured logger.
	Logger *slog.Logger

	closers []func() error
}

// Open binds the named workflow to the configured session and backend.
func (a *App) Open(name string) (workflow.Session, error) {
	return demo.Open(name, a.Backend, a.Config.Session, a.WorkflowOptions(name)...)
}

// WorkflowOptions returns the engine options for one workflow: configured
// engine settings, the logger and any step-text overrides.
func (a *App) WorkflowOptions(name string) []workflow.Option {
	opts := append(a.Config.EngineOptions(), workflow.WithLogger(a.Logger))
	if a.Content == nil || !a.Content.HasWorkflow(name) {
		return opts
	}

	reg, err := demo.Steps(name)
	if err != nil {
		return opts
	}
	applied, unknown := a.Content.Apply(name, reg)
	if len(unknown) > 0 {
		a.Logger.Warn("ignoring content for unknown steps", "workflow", name, "steps", unknown)
	}
	return append(opts, workflow.WithSteps(applied))
}

// Close releases backend connections.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// OpenBackend creates the storage backend selected by cfg.
//
// The returned close function releases any connection and is never nil.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Backend, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return memory.New(), noop, nil

	case config.BackendFile:
		return file.New(file.ResolveDir(cfg.Storage.Dir)), noop, nil

	case config.BackendRedis:
		rc := cfg.Storage.Redis
		client := goredis.NewClient(&goredis.Options{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
		})
		store := redisstore.New(client, redisstore.WithTTL(rc.SessionTTL), redisstore.WithLogger(logger))
		if err := store.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, noop, err
		}
		return store, client.Close, nil

	case config.BackendSQLite:
		store, err := sqlite.Open(cfg.Storage.SQLite.Path)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
