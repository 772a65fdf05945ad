// Package resource bounds the memory and read throughput of searches.
//
// Memory reservations cover long-lived buffers: the two windows of every
// open cursor and the blocks held by memory caches. They never block; a
// reservation that does not fit fails with ErrMemoryLimitExceeded and the
// caller decides whether to degrade (a cache skips the block) or give up
// (a cursor is not created).
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   64 << 20,
//	    IOLimitBytesPerSec: 32 << 20,
//	})
//	r := resource.Throttle(ctx, f, rc) // reads wait on the token bucket
//
// A nil *Controller imposes no limits.
package resource
