package file

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardflow/internal/storage"
)

func TestResolveDir(t *testing.T) {
	t.Run("explicit dir", func(t *testing.T) {
		t.Setenv(DirEnv, "")
		assert.Equal(t, "/tmp/explicit", ResolveDir("/tmp/explicit"))
	})

	t.Run("default dir", func(t *testing.T) {
		t.Setenv(DirEnv, "")
		assert.Equal(t, DefaultDir, ResolveDir(""))
	})

	t.Run("env overrides explicit dir", func(t *testing.T) {
		t.Setenv(DirEnv, "/from/env")
		assert.Equal(t, "/from/env", ResolveDir("/tmp/explicit"))
	})
}

func TestStore_Path(t *testing.T) {
	t.Setenv(DirEnv, "")
	s := New("/root/dir")

	assert.Equal(t,
		filepath.Join("/root/dir", "sess", "driver.state.yaml"),
		s.Path(storage.Key("sess", "driver", storage.KindState)))

	assert.Equal(t,
		filepath.Join("/root/dir", "sess", "driver.audit.yaml"),
		s.Path(storage.Key("sess", "driver", storage.KindAudit)))

	traversal := s.Path(storage.Key("../../etc", "driver", storage.KindState))
	rel, err := filepath.Rel("/root/dir", traversal)
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(rel, ".."), "path %q escapes the root", rel)
}

func TestStore_RoundTrip(t *testing.T) {
	t.Setenv(DirEnv, "")
	ctx := context.Background()
	s := New(t.TempDir())
	key := storage.Key("sess", "driver", storage.KindState)

	_, err := s.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Put(ctx, key, []byte("version: 1\n")))
	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "version: 1\n", string(got))

	leftovers, err := filepath.Glob(s.Path(key) + ".*.tmp")
	require.NoError(t, err)
	assert.Empty(t, leftovers, "temp file should be renamed away")

	require.NoError(t, s.Delete(ctx, key))
	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_ConcurrentPutsNeverTear(t *testing.T) {
	t.Setenv(DirEnv, "")
	ctx := context.Background()
	s := New(t.TempDir())
	key := storage.Key("sess", "driver", storage.KindState)

	values := make(map[string]bool)
	for i := 0; i < 16; i++ {
		values[strings.Repeat(fmt.Sprintf("writer-%02d;", i), 512)] = true
	}

	var wg sync.WaitGroup
	for v := range values {
		wg.Add(1)
		go func(v string) {
			defer wg.Done()
			assert.NoError(t, s.Put(ctx, key, []byte(v)))
		}(v)
	}
	wg.Wait()

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, values[string(got)], "stored value must be exactly one writer's value")

	leftovers, err := filepath.Glob(s.Path(key) + ".*.tmp")
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestSafeName_IsOneToOne(t *testing.T) {
	parts := []string{"", "%", "a/b", "a_b", "a%2Fb", ".x", "_.x", "%2Ex", "..", "a\\b"}

	seen := make(map[string]string, len(parts))
	for _, p := range parts {
		name := safeName(p)
		assert.NotContains(t, name, "/", p)
		assert.NotContains(t, name, "\\", p)
		assert.False(t, strings.HasPrefix(name, "."), "%q maps to hidden name %q", p, name)
		if other, ok := seen[name]; ok {
			t.Fatalf("parts %q and %q share file name %q", other, p, name)
		}
		seen[name] = p
	}
}

func TestStore_CancelledContext(t *testing.T) {
	t.Setenv(DirEnv, "")
	s := New(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, s.Put(ctx, "k", []byte("v")))
	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}
