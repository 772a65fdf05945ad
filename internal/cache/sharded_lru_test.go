package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShardedLRUBlockCache_BasicOperations(t *testing.T) {
	c := NewShardedLRUBlockCache(1<<20, nil)
	ctx := context.Background()
	key := CacheKey{Path: "s3://bucket/log.gz", Block: 0}

	c.Set(ctx, key, []byte("test data"))
	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, "test data", string(got))

	_, ok = c.Get(ctx, CacheKey{Path: "s3://bucket/log.gz", Block: 1})
	assert.False(t, ok)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestShardedLRUBlockCache_ShardDistribution(t *testing.T) {
	c := NewShardedLRUBlockCache(64<<20, nil)
	ctx := context.Background()
	data := make([]byte, 1024)

	for i := range 1000 {
		c.Set(ctx, CacheKey{Path: fmt.Sprintf("obj-%d", i%10), Block: uint64(i)}, data)
	}

	assert.Equal(t, 1000, c.Len())
	assert.Equal(t, int64(1000*1024), c.Size())
	assert.Len(t, c.shards, 16)
	assert.Greater(t, c.occupiedShards(), 12)
}

func TestShardCount(t *testing.T) {
	tests := []struct {
		capacity int64
		want     int
	}{
		{0, 1},
		{1 << 20, 1},
		{8 << 20, 2},
		{12 << 20, 2},
		{64 << 20, 16},
		{256 << 20, 64},
		{1 << 40, 64},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, shardCount(tt.capacity), "capacity %d", tt.capacity)
	}
}

func TestShardedLRUBlockCache_SmallCapacityCachesBlocks(t *testing.T) {
	c := NewShardedLRUBlockCache(1<<20, nil)
	ctx := context.Background()

	for i := range 8 {
		c.Set(ctx, CacheKey{Path: "obj", Block: uint64(i)}, make([]byte, 64<<10))
	}
	assert.Equal(t, 8, c.Len())
}

func TestShardedLRUBlockCache_Invalidate(t *testing.T) {
	c := NewShardedLRUBlockCache(1<<20, nil)
	ctx := context.Background()

	for i := range 100 {
		c.Set(ctx, CacheKey{Path: "a", Block: uint64(i)}, []byte{1})
		c.Set(ctx, CacheKey{Path: "b", Block: uint64(i)}, []byte{1})
	}

	c.Invalidate(func(k CacheKey) bool { return k.Path == "a" })
	assert.Equal(t, 100, c.Len())
	require.NoError(t, c.Close())
}

func TestShardedLRUBlockCache_Concurrent(t *testing.T) {
	c := NewShardedLRUBlockCache(1<<20, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 500 {
				key := CacheKey{Path: "p", Block: uint64(g*1000 + i)}
				c.Set(ctx, key, []byte{byte(i)})
				got, ok := c.Get(ctx, key)
				if assert.True(t, ok) {
					assert.Equal(t, byte(i), got[0])
				}
			}
		}()
	}
	wg.Wait()
}
