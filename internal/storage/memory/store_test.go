package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardflow/internal/storage"
)

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Put(ctx, "k", []byte("v1")))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	require.NoError(t, s.Put(ctx, "k", []byte("v2")))
	got, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got, "last writer wins")

	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "k"), "deleting twice is not an error")
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := New()

	in := []byte("abc")
	require.NoError(t, s.Put(ctx, "k", in))
	in[0] = 'X'

	out, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(out))

	out[0] = 'Y'
	again, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}
