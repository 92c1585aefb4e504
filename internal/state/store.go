// Package state provides the persisted, always-complete workflow state record.
//
// A [Store] reads and writes one state struct under one storage key. Reads
// never fail: an absent, undecodable or invalid persisted value falls back to
// the workflow's defaults, and a partially written value is decoded over a
// copy of the defaults so every field is populated.
//
// Key types:
//   - [Store] - Generic typed store over a storage.Backend
//   - [Option] - Functional options (logger, conflict detection)
//
// Persisted values are YAML envelopes:
//
//	version: 4
//	state:
//	  verified: true
//	  quoteReady: false
package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"guardflow/internal/logging"
	"guardflow/internal/storage"
)

// ErrConflict is returned by [Store.Write] when conflict detection is enabled and
// the persisted value changed since this store last observed it.
var ErrConflict = errors.New("state changed by another writer")

// envelope is the persisted shape. State is kept as a raw node so a missing or
// null state can be told apart from an explicitly empty mapping.
type envelope struct {
	Version int64     `yaml:"version"`
	State   yaml.Node `yaml:"state"`
}

type writeEnvelope[S any] struct {
	Version int64 `yaml:"version"`
	State   S     `yaml:"state"`
}

// Option configures a [Store].
type Option func(*options)

type options struct {
	logger    *slog.Logger
	validate  *validator.Validate
	conflicts bool
}

// WithLogger sets the logger used to report discarded values.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithConflictDetection makes [Store.Write] fail with [ErrConflict] instead of
// overwriting a value another writer persisted after this store's last read.
func WithConflictDetection() Option {
	return func(o *options) { o.conflicts = true }
}

// Store persists one state record of type S under a fixed key.
type Store[S any] struct {
	backend  storage.Backend
	key      string
	defaults S
	opts     options

	mu sync.Mutex
	// seen is the version observed by the last Read or Write.
	seen int64
}

// New creates a [Store] for key with the given complete defaults.
//
// S must be a struct type; its validate tags are checked on every read and write.
func New[S any](backend storage.Backend, key string, defaults S, opts ...Option) *Store[S] {
	o := options{
		logger:   logging.WithModule("state"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[S]{
		backend:  backend,
		key:      key,
		defaults: defaults,
		opts:     o,
	}
}

// Key returns the storage key.
func (s *Store[S]) Key() string {
	return s.key
}

// Defaults returns a copy of the default record.
func (s *Store[S]) Defaults() S {
	return s.defaults
}

// Read returns the persisted state merged over the defaults.
//
// Read never fails. Backend errors and corrupted values are logged and the
// defaults are returned.
func (s *Store[S]) Read(ctx context.Context) S {
	st, version := s.load(ctx)

	s.mu.Lock()
	s.seen = version
	s.mu.Unlock()

	return st
}

// Write overwrites the persisted value with st.
//
// With conflict detection enabled, Write first compares the persisted version
// with the version this store last observed and returns [ErrConflict] on mismatch.
func (s *Store[S]) Write(ctx context.Context, st S) error {
	if err := s.opts.validate.Struct(st); err != nil {
		return fmt.Errorf("invalid state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.version(ctx)
	if err != nil {
		return err
	}
	if s.opts.conflicts && current != s.seen {
		return fmt.Errorf("%w: persisted version %d, expected %d", ErrConflict, current, s.seen)
	}

	next := current + 1
	data, err := yaml.Marshal(writeEnvelope[S]{Version: next, State: st})
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := s.backend.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}

	s.seen = next
	return nil
}

// Reset deletes the persisted value so the next [Store.Read] returns the defaults.
//
// Reset is idempotent.
func (s *Store[S]) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("failed to reset state: %w", err)
	}
	s.seen = 0
	return nil
}

// load decodes the persisted value. It returns the defaults and version 0 for
// an absent value, and the defaults with the persisted version for a corrupt one.
func (s *Store[S]) load(ctx context.Context) (S, int64) {
	data, err := s.backend.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.opts.logger.Warn("state read failed, using defaults", "key", s.key, "error", err)
		}
		return s.defaults, 0
	}

	var env envelope
	if err := yaml.Unmarshal(data, &env); err != nil {
		s.opts.logger.Warn("discarding undecodable state", "key", s.key, "error", err)
		return s.defaults, 0
	}

	st := s.defaults
	if env.State.Kind != yaml.MappingNode {
		if env.State.Kind != 0 {
			s.opts.logger.Warn("discarding non-mapping state", "key", s.key)
		}
		return st, env.Version
	}
	if err := env.State.Decode(&st); err != nil {
		s.opts.logger.Warn("discarding undecodable state", "key", s.key, "error", err)
		return s.defaults, env.Version
	}
	if err := s.opts.validate.Struct(st); err != nil {
		s.opts.logger.Warn("discarding invalid state", "key", s.key, "error", err)
		return s.defaults, env.Version
	}
	return st, env.Version
}

// version returns the persisted envelope version, or 0 when nothing decodable is stored.
func (s *Store[S]) version(ctx context.Context) (int64, error) {
	data, err := s.backend.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read state: %w", err)
	}

	var env envelope
	if err := yaml.Unmarshal(data, &env); err != nil {
		return 0, nil
	}
	return env.Version, nil
}
