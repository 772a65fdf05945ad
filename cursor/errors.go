package cursor

import (
	"errors"
	"fmt"
)

var (
	// ErrOffsetOutOfRange is returned when a seek targets an offset outside [0, size].
	ErrOffsetOutOfRange = errors.New("cursor: offset out of range")
	// ErrInvalidWhence is returned for an unknown seek origin.
	ErrInvalidWhence = errors.New("cursor: invalid whence")
	// ErrInvalidBufferSize is returned when the configured window capacity is not positive.
	ErrInvalidBufferSize = errors.New("cursor: buffer size must be positive")
	// ErrMemoryLimit is returned when the resource controller refuses the window reservation.
	ErrMemoryLimit = errors.New("cursor: memory limit exceeded")
	// ErrShortWindow is returned when the stream yields fewer bytes than its size promised.
	ErrShortWindow = errors.New("cursor: short window read")
)

// invariant panics when cond is false. Broken window bookkeeping means every
// later read could silently return wrong bytes.
func invariant(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("cursor: invariant violated: "+format, args...))
	}
}
