package cache

import (
	"context"
	"errors"
)

// Tiered consults a fast cache before a slow one. Blocks found only in the
// slow tier are promoted; Set writes both tiers.
type Tiered struct {
	fast BlockCache
	slow BlockCache
}

// NewTiered chains fast in front of slow.
func NewTiered(fast, slow BlockCache) *Tiered {
	return &Tiered{fast: fast, slow: slow}
}

func (t *Tiered) Get(ctx context.Context, key CacheKey) ([]byte, bool) {
	if b, ok := t.fast.Get(ctx, key); ok {
		return b, true
	}
	b, ok := t.slow.Get(ctx, key)
	if ok {
		t.fast.Set(ctx, key, b)
	}
	return b, ok
}

func (t *Tiered) Set(ctx context.Context, key CacheKey, b []byte) {
	t.fast.Set(ctx, key, b)
	t.slow.Set(ctx, key, b)
}

func (t *Tiered) Invalidate(predicate func(key CacheKey) bool) {
	t.fast.Invalidate(predicate)
	t.slow.Invalidate(predicate)
}

func (t *Tiered) Close() error {
	return errors.Join(t.fast.Close(), t.slow.Close())
}

// Stats reports the fast tier; a fast miss served by the slow tier is
// still a miss.
func (t *Tiered) Stats() (hits, misses int64) {
	return t.fast.Stats()
}
