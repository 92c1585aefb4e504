// Package audit provides the append-only, most-recent-first audit trail of a workflow.
//
// Every accepted workflow action appends exactly one [Entry]. The log lives under
// its own storage key, independent of the state record, and is cleared only by
// an explicit reset.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"guardflow/internal/logging"
	"guardflow/internal/storage"
)

// ErrEmptyMessage is returned by [Log.Append] for a blank message.
var ErrEmptyMessage = errors.New("audit message is empty")

// Entry is one immutable audit record.
type Entry struct {
	// Timestamp is the append time in Unix milliseconds.
	Timestamp int64 `json:"timestamp" yaml:"timestamp"`

	// Message is the human-readable description of the action taken.
	Message string `json:"message" yaml:"message"`
}

// Time returns the timestamp as a UTC time.
func (e Entry) Time() time.Time {
	return time.UnixMilli(e.Timestamp).UTC()
}

// Option configures a [Log].
type Option func(*Log)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// WithLogger sets the logger used to report discarded values.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) { l.logger = logger }
}

// Log is an audit trail persisted under a single storage key.
type Log struct {
	backend storage.Backend
	key     string
	now     func() time.Time
	logger  *slog.Logger

	mu sync.Mutex
}

// NewLog creates a [Log] stored under key.
func NewLog(backend storage.Backend, key string, opts ...Option) *Log {
	l := &Log{
		backend: backend,
		key:     key,
		now:     time.Now,
		logger:  logging.WithModule("audit"),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Key returns the storage key.
func (l *Log) Key() string {
	return l.key
}

// Append records message as the newest entry and returns it.
func (l *Log) Append(ctx context.Context, message string) (Entry, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Entry{}, ErrEmptyMessage
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{Timestamp: l.now().UnixMilli(), Message: message}
	entries := append([]Entry{entry}, l.load(ctx)...)

	data, err := yaml.Marshal(entries)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to marshal audit log: %w", err)
	}
	if err := l.backend.Put(ctx, l.key, data); err != nil {
		return Entry{}, fmt.Errorf("failed to append audit entry: %w", err)
	}
	return entry, nil
}

// Entries returns the full log, most recent first.
//
// Entries never fails: an absent or corrupt log reads as empty.
func (l *Log) Entries(ctx context.Context) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

// Recent returns at most n of the most recent entries. n <= 0 returns all entries.
func (l *Log) Recent(ctx context.Context, n int) []Entry {
	entries := l.Entries(ctx)
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// Clear removes every entry. Clear is idempotent.
func (l *Log) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.backend.Delete(ctx, l.key); err != nil {
		return fmt.Errorf("failed to clear audit log: %w", err)
	}
	return nil
}

func (l *Log) load(ctx context.Context) []Entry {
	data, err := l.backend.Get(ctx, l.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			l.logger.Warn("audit read failed, treating log as empty", "key", l.key, "error", err)
		}
		return []Entry{}
	}

	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		l.logger.Warn("discarding undecodable audit log", "key", l.key, "error", err)
		return []Entry{}
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries
}
