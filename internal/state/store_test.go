package state

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardflow/internal/storage"
	"guardflow/internal/storage/memory"
)

type reviewState struct {
	Checked  bool   `yaml:"checked"`
	Decision string `yaml:"decision" validate:"oneof=pending approve decline"`
	Count    int    `yaml:"count" validate:"gte=0"`
	Note     string `yaml:"note"`
}

var reviewDefaults = reviewState{Decision: "pending", Note: "none"}

const testKey = "guardflow:test:review:state"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(backend storage.Backend, opts ...Option) *Store[reviewState] {
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	return New(backend, testKey, reviewDefaults, opts...)
}

func TestStore_ReadAbsentReturnsDefaults(t *testing.T) {
	s := newTestStore(memory.New())

	got := s.Read(context.Background())

	assert.Equal(t, reviewDefaults, got)
	assert.Equal(t, reviewDefaults, s.Defaults())
	assert.Equal(t, testKey, s.Key())
}

func TestStore_ReadAfterWrite(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(memory.New())

	want := reviewState{Checked: true, Decision: "approve", Count: 2, Note: "ok"}
	require.NoError(t, s.Write(ctx, want))

	assert.Equal(t, want, s.Read(ctx))
}

func TestStore_ReadMalformedValues(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want reviewState
	}{
		{
			name: "partial state keeps defaults for missing fields",
			raw:  "version: 2\nstate:\n  checked: true\n",
			want: reviewState{Checked: true, Decision: "pending", Note: "none"},
		},
		{
			name: "empty mapping is all defaults",
			raw:  "version: 1\nstate: {}\n",
			want: reviewDefaults,
		},
		{
			name: "missing state node",
			raw:  "version: 1\n",
			want: reviewDefaults,
		},
		{
			name: "null state",
			raw:  "version: 1\nstate: null\n",
			want: reviewDefaults,
		},
		{
			name: "state is a list",
			raw:  "version: 1\nstate:\n  - checked\n",
			want: reviewDefaults,
		},
		{
			name: "undecodable yaml",
			raw:  "version: [\n",
			want: reviewDefaults,
		},
		{
			name: "field of the wrong type",
			raw:  "version: 1\nstate:\n  count: many\n",
			want: reviewDefaults,
		},
		{
			name: "enum outside its closed set",
			raw:  "version: 1\nstate:\n  decision: maybe\n  checked: true\n",
			want: reviewDefaults,
		},
		{
			name: "unknown fields are ignored",
			raw:  "version: 1\nstate:\n  legacyFlag: true\n  count: 3\n",
			want: reviewState{Decision: "pending", Count: 3, Note: "none"},
		},
		{
			name: "binary garbage",
			raw:  "\x00\x01\x02",
			want: reviewDefaults,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			backend := memory.New()
			require.NoError(t, backend.Put(ctx, testKey, []byte(tt.raw)))

			s := newTestStore(backend)
			assert.Equal(t, tt.want, s.Read(ctx))
		})
	}
}

type failingBackend struct {
	err error
}

func (f failingBackend) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingBackend) Put(context.Context, string, []byte) error   { return f.err }
func (f failingBackend) Delete(context.Context, string) error        { return f.err }

func TestStore_BackendFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	s := newTestStore(failingBackend{err: boom})

	assert.Equal(t, reviewDefaults, s.Read(ctx), "read never fails")

	err := s.Write(ctx, reviewDefaults)
	assert.ErrorIs(t, err, boom)

	err = s.Reset(ctx)
	assert.ErrorIs(t, err, boom)
}

func TestStore_WriteRejectsInvalidState(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	s := newTestStore(backend)

	err := s.Write(ctx, reviewState{Decision: "unknown"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid state")
	assert.Equal(t, 0, backend.Len())
}

func TestStore_ResetIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(memory.New())

	require.NoError(t, s.Write(ctx, reviewState{Checked: true, Decision: "decline"}))

	require.NoError(t, s.Reset(ctx))
	once := s.Read(ctx)
	require.NoError(t, s.Reset(ctx))
	twice := s.Read(ctx)

	assert.Equal(t, reviewDefaults, once)
	assert.Equal(t, once, twice)
}

func TestStore_LastWriterWinsByDefault(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	tabA := newTestStore(backend)
	tabB := newTestStore(backend)

	tabA.Read(ctx)
	tabB.Read(ctx)

	require.NoError(t, tabA.Write(ctx, reviewState{Checked: true, Decision: "pending"}))
	require.NoError(t, tabB.Write(ctx, reviewState{Decision: "decline"}))

	assert.Equal(t, reviewState{Decision: "decline"}, tabA.Read(ctx))
}

func TestStore_ConflictDetection(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	tabA := newTestStore(backend, WithConflictDetection())
	tabB := newTestStore(backend, WithConflictDetection())

	tabA.Read(ctx)
	tabB.Read(ctx)

	require.NoError(t, tabA.Write(ctx, reviewState{Checked: true, Decision: "pending"}))

	err := tabB.Write(ctx, reviewState{Decision: "decline"})
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, reviewState{Checked: true, Decision: "pending"}, tabA.Read(ctx), "conflicting write is not applied")

	// After re-reading, tab B sees the new version and may write again.
	tabB.Read(ctx)
	require.NoError(t, tabB.Write(ctx, reviewState{Decision: "decline"}))

	// Consecutive writes from one store do not conflict with themselves.
	require.NoError(t, tabB.Write(ctx, reviewState{Decision: "approve"}))
	assert.Equal(t, "approve", tabB.Read(ctx).Decision)
}

func TestStore_ConflictDetectionAfterReset(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	tabA := newTestStore(backend, WithConflictDetection())
	tabB := newTestStore(backend, WithConflictDetection())

	tabA.Read(ctx)
	require.NoError(t, tabA.Write(ctx, reviewState{Decision: "approve"}))

	tabB.Read(ctx)
	require.NoError(t, tabA.Reset(ctx))

	err := tabB.Write(ctx, reviewState{Decision: "decline"})
	assert.ErrorIs(t, err, ErrConflict, "a reset by another writer is a conflict too")
}
