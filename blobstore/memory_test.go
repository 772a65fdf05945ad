package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	data := []byte("hello world")
	s.Put("a/one", data)
	s.Put("a/two", []byte("x"))
	s.Put("b", nil)
	data[0] = 'H'

	assert.Equal(t, []string{"a/one", "a/two"}, s.List("a/"))

	b, err := s.Open(ctx, "a/one")
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, int64(11), b.Size())

	p := make([]byte, 5)
	n, err := b.ReadAt(ctx, p, 0)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(p[:n]), "Put stores a copy")

	n, err = b.ReadAt(ctx, p, 8)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "rld", string(p[:n]))

	rr, ok := b.(RangeReader)
	require.True(t, ok)
	rc, err := rr.ReadRange(ctx, 6, 100)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "world", string(got))

	_, err = s.Open(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	s := NewMemoryStore()
	s.Put("a", []byte("abc"))

	ctx, cancel := context.WithCancel(context.Background())
	b, err := s.Open(ctx, "a")
	require.NoError(t, err)
	cancel()

	_, err = b.ReadAt(ctx, make([]byte, 1), 0)
	assert.ErrorIs(t, err, context.Canceled)
}
