// Package memory implements storage.Backend with an in-process map.
//
// It is the fake used by tests and the default backend for one-shot CLI
// invocations. Values are copied on the way in and out so callers can never
// alias stored bytes.
package memory

import (
	"context"
	"sync"

	"guardflow/internal/storage"
)

var _ storage.Backend = (*Store)(nil)

// Store is a mutex-guarded map backend.
type Store struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// New creates an empty memory store.
func New() *Store {
	return &Store{values: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put stores a copy of value under key.
func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
