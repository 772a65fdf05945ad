package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// maxBurst caps the token bucket so a high limit still smooths reads over
// the second instead of allowing a full second of bytes at once.
const maxBurst = 4 << 20

// ErrMemoryLimitExceeded is returned when a reservation does not fit.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Config holds resource limits. Zero means unlimited.
type Config struct {
	// MemoryLimitBytes bounds cursor windows and cached blocks together.
	MemoryLimitBytes int64
	// IOLimitBytesPerSec bounds the read throughput of throttled sources.
	IOLimitBytesPerSec int64
}

// Controller tracks memory reservations and throttles reads. A nil
// *Controller is valid and imposes no limits.
type Controller struct {
	mem  *semaphore.Weighted
	used atomic.Int64
	io   *rate.Limiter
}

// NewController returns a controller enforcing cfg.
func NewController(cfg Config) *Controller {
	c := &Controller{}
	if cfg.MemoryLimitBytes > 0 {
		c.mem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}
	if cfg.IOLimitBytesPerSec > 0 {
		burst := int(min(cfg.IOLimitBytesPerSec, maxBurst))
		c.io = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), burst)
	}
	return c
}

// AcquireMemory is TryAcquireMemory returning ErrMemoryLimitExceeded on
// failure.
func (c *Controller) AcquireMemory(n int64) error {
	if !c.TryAcquireMemory(n) {
		return ErrMemoryLimitExceeded
	}
	return nil
}

// TryAcquireMemory reserves n bytes without blocking.
func (c *Controller) TryAcquireMemory(n int64) bool {
	if c == nil || n <= 0 {
		return true
	}
	if c.mem != nil && !c.mem.TryAcquire(n) {
		return false
	}
	c.used.Add(n)
	return true
}

// ReleaseMemory returns n reserved bytes.
func (c *Controller) ReleaseMemory(n int64) {
	if c == nil || n <= 0 {
		return
	}
	if c.mem != nil {
		c.mem.Release(n)
	}
	c.used.Add(-n)
}

// MemoryUsage returns the reserved bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.used.Load()
}

// Throttled reports whether reads are rate limited.
func (c *Controller) Throttled() bool {
	return c != nil && c.io != nil
}

// AcquireIO blocks until n bytes may be read or ctx is done. Requests larger
// than the bucket wait in bucket-sized steps.
func (c *Controller) AcquireIO(ctx context.Context, n int) error {
	if !c.Throttled() {
		return nil
	}
	burst := c.io.Burst()
	for n > 0 {
		step := min(n, burst)
		if err := c.io.WaitN(ctx, step); err != nil {
			return err
		}
		n -= step
	}
	return nil
}
