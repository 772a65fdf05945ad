package cache

import (
	"context"
	"hash/maphash"
	"math/bits"

	"github.com/hupe1980/seekline/internal/resource"
)

const (
	maxShards = 64
	// minShardBytes keeps every shard large enough for a few default-sized
	// blocks. A shard smaller than one block would never cache anything.
	minShardBytes = 4 << 20
)

// ShardedLRUBlockCache spreads blocks over up to 64 segmented LRU shards so
// concurrent searches over different objects rarely share a lock. Small
// capacities use fewer shards.
type ShardedLRUBlockCache struct {
	shards []*LRUBlockCache
	mask   uint64
	seed   maphash.Seed
}

// NewShardedLRUBlockCache returns a cache holding at most capacity bytes in
// total. Blocks are also charged against rc when it is not nil.
func NewShardedLRUBlockCache(capacity int64, rc *resource.Controller) *ShardedLRUBlockCache {
	n := shardCount(capacity)
	s := &ShardedLRUBlockCache{
		shards: make([]*LRUBlockCache, n),
		mask:   uint64(n - 1),
		seed:   maphash.MakeSeed(),
	}
	for i := range s.shards {
		s.shards[i] = NewLRUBlockCache(capacity/int64(n), rc)
	}
	return s
}

// shardCount returns the largest power of two <= maxShards that leaves each
// shard at least minShardBytes.
func shardCount(capacity int64) int {
	n := capacity / minShardBytes
	if n < 1 {
		return 1
	}
	if n >= maxShards {
		return maxShards
	}
	return 1 << (bits.Len64(uint64(n)) - 1)
}

func (s *ShardedLRUBlockCache) shard(key CacheKey) *LRUBlockCache {
	return s.shards[maphash.Comparable(s.seed, key)&s.mask]
}

func (s *ShardedLRUBlockCache) Get(ctx context.Context, key CacheKey) ([]byte, bool) {
	return s.shard(key).Get(ctx, key)
}

func (s *ShardedLRUBlockCache) Set(ctx context.Context, key CacheKey, b []byte) {
	s.shard(key).Set(ctx, key, b)
}

// Invalidate removes entries matching the predicate from every shard.
func (s *ShardedLRUBlockCache) Invalidate(predicate func(key CacheKey) bool) {
	for _, sh := range s.shards {
		sh.Invalidate(predicate)
	}
}

func (s *ShardedLRUBlockCache) Close() error { return nil }

// Stats returns hits and misses summed over all shards.
func (s *ShardedLRUBlockCache) Stats() (hits, misses int64) {
	for _, sh := range s.shards {
		h, m := sh.Stats()
		hits += h
		misses += m
	}
	return hits, misses
}

// Size returns the cached bytes over all shards.
func (s *ShardedLRUBlockCache) Size() int64 {
	var total int64
	for _, sh := range s.shards {
		total += sh.Size()
	}
	return total
}

// Len returns the number of cached blocks over all shards.
func (s *ShardedLRUBlockCache) Len() int {
	total := 0
	for _, sh := range s.shards {
		total += sh.Len()
	}
	return total
}

func (s *ShardedLRUBlockCache) occupiedShards() int {
	n := 0
	for _, sh := range s.shards {
		if sh.Len() > 0 {
			n++
		}
	}
	return n
}
