package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/seekline/internal/resource"
)

// protectedShare is the share of the capacity reserved for blocks that were
// hit at least once after being cached.
const protectedShare = 0.8

// LRUBlockCache is a byte-capped segmented LRU.
//
// New blocks enter a probation segment and move to a protected segment on
// their second access. Eviction drains probation first, so a sequential pass
// over a large object cannot flush the blocks that bisection keeps revisiting
// (the head of a file and the first few midpoints).
type LRUBlockCache struct {
	mu        sync.Mutex
	capacity  int64
	protCap   int64
	size      int64
	protSize  int64
	items     map[CacheKey]*list.Element
	probation *list.List
	protected *list.List
	rc        *resource.Controller

	hits   atomic.Int64
	misses atomic.Int64
}

type entry struct {
	key       CacheKey
	value     []byte
	protected bool
}

// NewLRUBlockCache returns a cache holding at most capacity bytes. Blocks are
// also charged against rc when it is not nil.
func NewLRUBlockCache(capacity int64, rc *resource.Controller) *LRUBlockCache {
	return &LRUBlockCache{
		capacity:  capacity,
		protCap:   int64(float64(capacity) * protectedShare),
		items:     make(map[CacheKey]*list.Element),
		probation: list.New(),
		protected: list.New(),
		rc:        rc,
	}
}

// Get returns a cached block and promotes it.
func (c *LRUBlockCache) Get(_ context.Context, key CacheKey) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.promote(el)
	return el.Value.(*entry).value, true
}

// Set caches a block. Blocks larger than the capacity, or denied by the
// resource controller, are not cached. Set never blocks.
func (c *LRUBlockCache) Set(_ context.Context, key CacheKey, b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := int64(len(b))
	if el, ok := c.items[key]; ok {
		c.replace(el, b)
		return
	}
	if n > c.capacity {
		return
	}

	// Evict first so the controller sees the released memory.
	c.shrink(c.capacity - n)
	if c.rc != nil && !c.rc.TryAcquireMemory(n) {
		return
	}

	c.items[key] = c.probation.PushFront(&entry{key: key, value: b})
	c.size += n
}

func (c *LRUBlockCache) replace(el *list.Element, b []byte) {
	e := el.Value.(*entry)
	oldSize, newSize := int64(len(e.value)), int64(len(b))

	// A denied growth keeps the old value.
	if c.rc != nil && newSize > oldSize && !c.rc.TryAcquireMemory(newSize-oldSize) {
		return
	}
	if c.rc != nil && newSize < oldSize {
		c.rc.ReleaseMemory(oldSize - newSize)
	}

	e.value = b
	c.size += newSize - oldSize
	if e.protected {
		c.protSize += newSize - oldSize
	}
	c.promote(el)
	c.shrink(c.capacity)
}

// promote moves a probation entry into the protected segment, demoting the
// oldest protected entries when the segment overflows.
func (c *LRUBlockCache) promote(el *list.Element) {
	e := el.Value.(*entry)
	if e.protected {
		c.protected.MoveToFront(el)
		return
	}

	c.probation.Remove(el)
	e.protected = true
	c.items[e.key] = c.protected.PushFront(e)
	c.protSize += int64(len(e.value))

	for c.protSize > c.protCap && c.protected.Len() > 1 {
		tail := c.protected.Back()
		d := c.protected.Remove(tail).(*entry)
		d.protected = false
		c.protSize -= int64(len(d.value))
		c.items[d.key] = c.probation.PushFront(d)
	}
}

// shrink evicts until at most limit bytes are cached.
func (c *LRUBlockCache) shrink(limit int64) {
	for c.size > limit {
		if !c.evictOne() {
			return
		}
	}
}

func (c *LRUBlockCache) evictOne() bool {
	if el := c.probation.Back(); el != nil {
		c.remove(el)
		return true
	}
	if el := c.protected.Back(); el != nil {
		c.remove(el)
		return true
	}
	return false
}

func (c *LRUBlockCache) remove(el *list.Element) {
	e := el.Value.(*entry)
	n := int64(len(e.value))
	if e.protected {
		c.protected.Remove(el)
		c.protSize -= n
	} else {
		c.probation.Remove(el)
	}
	delete(c.items, e.key)
	c.size -= n
	if c.rc != nil {
		c.rc.ReleaseMemory(n)
	}
}

// Invalidate removes entries matching the predicate.
func (c *LRUBlockCache) Invalidate(predicate func(key CacheKey) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, el := range c.items {
		if predicate(key) {
			c.remove(el)
		}
	}
}

func (c *LRUBlockCache) Close() error { return nil }

func (c *LRUBlockCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of cached blocks.
func (c *LRUBlockCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Size returns the cached bytes.
func (c *LRUBlockCache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}
