// Package storage defines the key/value contract behind workflow persistence.
//
// Every workflow type owns two independent keys per session: one for its
// state record and one for its audit log. Backends only move bytes; encoding,
// defaulting and validation live in the state and audit packages.
//
// Implementations:
//   - storage/memory - in-process map, used by tests and one-shot CLI runs
//   - storage/file - YAML files with atomic writes
//   - storage/redis - Redis with a session TTL
//   - storage/sqlite - a single SQLite table
package storage

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// ErrNotFound is returned by [Backend.Get] when no value is stored under a key.
var ErrNotFound = errors.New("storage: key not found")

// KeyPrefix namespaces every key written by guardflow.
const KeyPrefix = "guardflow"

// Key kinds. Each workflow type owns one key of each kind per session.
const (
	KindState = "state"
	KindAudit = "audit"
)

// DefaultSession is used when no session identifier is configured.
const DefaultSession = "default"

// Backend stores opaque values by key.
//
// Get returns [ErrNotFound] for absent keys. Delete of an absent key is not an
// error. Put overwrites unconditionally (last writer wins).
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Key builds the storage key for one workflow type in one session.
//
// The format is guardflow:{session}:{workflow}:{kind}. An empty session maps
// to [DefaultSession]. Parts are query-escaped, so a part never contains a
// colon and distinct sessions always get distinct keys.
func Key(session, workflow, kind string) string {
	if session == "" {
		session = DefaultSession
	}
	parts := []string{KeyPrefix, url.QueryEscape(session), url.QueryEscape(workflow), url.QueryEscape(kind)}
	return strings.Join(parts, ":")
}
