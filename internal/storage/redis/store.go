// Package redis implements storage.Backend on Redis strings.
//
// Each key holds one value. A session TTL, when configured, is refreshed on
// every write so an idle session expires the way a closed browser session
// would clear its storage.
//
// Usage:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	s := redisstore.New(client, redisstore.WithTTL(time.Hour))
//	if err := s.Ping(ctx); err != nil { ... }
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"guardflow/internal/storage"
)

var _ storage.Backend = (*Store)(nil)

// Option configures the Store.
type Option func(*Store)

// WithTTL sets the expiry applied on each write. Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store is a Redis-backed key/value backend.
type Store struct {
	client goredis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a Redis-backed store. The caller owns the client lifecycle.
func New(client goredis.Cmdable, opts ...Option) *Store {
	s := &Store{client: client, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Ping verifies the Redis connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("guardflow/redis: get %s: %w", key, err)
	}
	return data, nil
}

// Put overwrites key and refreshes its TTL.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("guardflow/redis: put %s: %w", key, err)
	}
	s.logger.Debug("redis put", "key", key, "bytes", len(value), "ttl", s.ttl)
	return nil
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("guardflow/redis: delete %s: %w", key, err)
	}
	return nil
}
