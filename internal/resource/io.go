package resource

import (
	"context"
	"io"
)

// Throttle returns rs with its reads charged against the IO limit of c. It
// returns rs unchanged when c does not throttle.
func Throttle(ctx context.Context, rs io.ReadSeeker, c *Controller) io.ReadSeeker {
	if !c.Throttled() {
		return rs
	}
	return &throttledReader{ctx: ctx, rs: rs, rc: c}
}

type throttledReader struct {
	ctx context.Context
	rs  io.ReadSeeker
	rc  *Controller
}

func (r *throttledReader) Read(p []byte) (int, error) {
	// The full buffer is charged up front; the read may return less.
	if err := r.rc.AcquireIO(r.ctx, len(p)); err != nil {
		return 0, err
	}
	return r.rs.Read(p)
}

// Seeks are free.
func (r *throttledReader) Seek(offset int64, whence int) (int64, error) {
	return r.rs.Seek(offset, whence)
}
