package cursor

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/seekline/internal/position"
)

// Unlimited as a read limit means "up to the stream boundary": the end of the
// stream for forward reads, offset 0 for backward reads.
const Unlimited = -1

// Mode selects how ReadLineBackward treats a terminator immediately left of
// the focus.
type Mode int

const (
	// Greedy skips a terminator sitting immediately left of the focus before
	// scanning, so reading backward from a line start yields the previous line.
	Greedy Mode = iota
	// NonGreedy stops at a terminator immediately left of the focus, snapping a
	// mid-line offset to its line start and leaving a line start unchanged.
	NonGreedy
)

func (m Mode) String() string {
	if m == NonGreedy {
		return "non-greedy"
	}
	return "greedy"
}

const terminator = '\n'

// Reader is a bidirectional buffered cursor over an io.ReadSeeker.
//
// The left window holds the bytes at [center-len(left), center) and the right
// window holds [center, center+len(right)). The focus always lies within that
// span. Both windows share the capacity configured by WithBufferSize and are
// reused across refills.
type Reader struct {
	src  io.ReadSeeker
	size int64
	opts Options

	left   []byte
	right  []byte
	center int64
	focus  int64

	// srcPos is the offset of src after the last refill, or -1 when unknown.
	srcPos int64

	closed bool
}

// New creates a Reader over src. The size of src is taken once; the stream is
// treated as immutable for the lifetime of the Reader. The focus starts at 0.
func New(src io.ReadSeeker, optFns ...Option) (*Reader, error) {
	opts := applyOptions(optFns)
	if opts.BufferSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBufferSize, opts.BufferSize)
	}

	size, err := position.Size(src, true)
	if err != nil {
		return nil, fmt.Errorf("cursor: stream size: %w", err)
	}

	if opts.Resources != nil && !opts.Resources.TryAcquireMemory(int64(2*opts.BufferSize)) {
		return nil, fmt.Errorf("%w: %d bytes", ErrMemoryLimit, 2*opts.BufferSize)
	}

	return &Reader{
		src:    src,
		size:   size,
		opts:   opts,
		left:   make([]byte, 0, opts.BufferSize),
		right:  make([]byte, 0, opts.BufferSize),
		srcPos: -1,
	}, nil
}

// Close releases the window memory. It does not close the underlying stream.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.opts.Resources != nil {
		r.opts.Resources.ReleaseMemory(int64(2 * r.opts.BufferSize))
	}
	r.left, r.right = nil, nil
	return nil
}

// Size returns the size of the underlying stream.
func (r *Reader) Size() int64 { return r.size }

// Tell returns the focus offset.
func (r *Reader) Tell() int64 { return r.focus }

// AtEnd reports whether the focus is at the end of the stream.
func (r *Reader) AtEnd() bool { return r.focus == r.size }

// BufferSize returns the capacity of each window.
func (r *Reader) BufferSize() int { return r.opts.BufferSize }

// Seek sets the focus. A target inside the buffered span only moves the
// focus; any other target discards both windows. Seek implements io.Seeker.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += r.focus
	case io.SeekEnd:
		offset += r.size
	default:
		return r.focus, fmt.Errorf("%w: %d", ErrInvalidWhence, whence)
	}

	if offset < 0 || offset > r.size {
		return r.focus, fmt.Errorf("%w: %d not in [0, %d]", ErrOffsetOutOfRange, offset, r.size)
	}

	lo := r.center - int64(len(r.left))
	hi := r.center + int64(len(r.right))
	if lo <= offset && offset <= hi {
		r.focus = offset
		return offset, nil
	}

	r.left = r.left[:0]
	r.right = r.right[:0]
	r.center = offset
	r.focus = offset

	return offset, nil
}

// ReadForward consumes up to n bytes moving the focus right. Fewer bytes are
// returned only at the end of the stream. A negative n reads to the end.
func (r *Reader) ReadForward(n int) ([]byte, error) {
	return r.appendForward(nil, r.forwardLimit(n), false)
}

// ReadLineForward is like ReadForward but stops right after the first line
// terminator, which is included in the result.
func (r *Reader) ReadLineForward(n int) ([]byte, error) {
	return r.appendForward(nil, r.forwardLimit(n), true)
}

// ReadBackward consumes up to n bytes moving the focus left. Fewer bytes are
// returned only at the start of the stream. A negative n reads to offset 0.
func (r *Reader) ReadBackward(n int) ([]byte, error) {
	return r.readBackward(r.backwardLimit(n), false, Greedy)
}

// ReadLineBackward scans left for the previous line terminator strictly
// before the focus and returns the bytes between it and the focus. The focus
// ends just after that terminator, or at offset 0 if there is none.
//
// See [Mode] for how a terminator immediately left of the focus is treated.
func (r *Reader) ReadLineBackward(n int, mode Mode) ([]byte, error) {
	return r.readBackward(r.backwardLimit(n), true, mode)
}

// Read implements io.Reader on top of ReadForward.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if r.AtEnd() {
		return 0, io.EOF
	}
	out, err := r.appendForward(p[:0], int64(len(p)), false)
	return len(out), err
}

// ReadLine returns the next line including its terminator. It returns io.EOF
// once the focus is at the end of the stream.
func (r *Reader) ReadLine() ([]byte, error) {
	if r.AtEnd() {
		return nil, io.EOF
	}
	return r.ReadLineForward(Unlimited)
}

func (r *Reader) forwardLimit(n int) int64 {
	if n < 0 {
		return r.size - r.focus
	}
	return int64(n)
}

func (r *Reader) backwardLimit(n int) int64 {
	if n < 0 {
		return r.focus
	}
	return int64(n)
}

// appendForward appends up to limit bytes at the focus to dst.
func (r *Reader) appendForward(dst []byte, limit int64, line bool) ([]byte, error) {
	for limit > 0 {
		rel := r.focus - r.center

		var window []byte
		var i int64
		switch {
		case rel < 0:
			window, i = r.left, rel+int64(len(r.left))
			invariant(i >= 0, "focus %d left of window at %d", r.focus, r.center-int64(len(r.left)))
		case rel < int64(len(r.right)):
			window, i = r.right, rel
		default:
			invariant(rel == int64(len(r.right)), "focus %d right of window end %d", r.focus, r.center+int64(len(r.right)))
			ok, err := r.moveRight()
			if err != nil {
				return dst, err
			}
			if !ok {
				return dst, nil
			}
			continue
		}

		chunk := window[i:]
		if int64(len(chunk)) > limit {
			chunk = chunk[:limit]
		}

		found := false
		if line {
			if j := bytes.IndexByte(chunk, terminator); j >= 0 {
				chunk = chunk[:j+1]
				found = true
			}
		}

		dst = append(dst, chunk...)
		limit -= int64(len(chunk))
		r.focus += int64(len(chunk))

		if found {
			break
		}
	}

	invariant(limit >= 0, "negative residual budget %d", limit)
	return dst, nil
}

// readBackward collects up to limit bytes left of the focus.
func (r *Reader) readBackward(limit int64, line bool, mode Mode) ([]byte, error) {
	// Pieces are gathered right to left and copied because a refill may reuse
	// the window they point into.
	var pieces [][]byte
	total := 0

	for limit > 0 {
		rel := r.focus - r.center

		var window []byte
		var i int64
		switch {
		case rel > 0:
			invariant(rel <= int64(len(r.right)), "focus %d right of window end %d", r.focus, r.center+int64(len(r.right)))
			window, i = r.right, rel
		case rel+int64(len(r.left)) > 0:
			window, i = r.left, rel+int64(len(r.left))
		default:
			invariant(rel+int64(len(r.left)) == 0, "focus %d left of window at %d", r.focus, r.center-int64(len(r.left)))
			ok, err := r.moveLeft()
			if err != nil {
				return join(pieces, total), err
			}
			if !ok {
				return join(pieces, total), nil
			}
			continue
		}

		n := min(i, limit)

		found := false
		if line {
			scan := window[:i]
			if total == 0 && mode == Greedy && scan[len(scan)-1] == terminator {
				scan = scan[:len(scan)-1]
			}
			if j := bytes.LastIndexByte(scan, terminator); j >= 0 {
				n = min(n, i-int64(j+1))
				found = true
			}
		}

		if n > 0 {
			pieces = append(pieces, bytes.Clone(window[i-n:i]))
			total += int(n)
		}
		limit -= n
		r.focus -= n

		if found {
			break
		}
	}

	invariant(limit >= 0, "negative residual budget %d", limit)
	return join(pieces, total), nil
}

// moveRight loads a fresh right window at the focus. The old right window,
// when non-empty, becomes the left window so a direction reversal right
// after the refill stays in memory.
func (r *Reader) moveRight() (bool, error) {
	invariant(r.focus-r.center == int64(len(r.right)), "moveRight with focus %d inside window", r.focus)

	if r.focus == r.size {
		return false, nil
	}

	if err := r.seekSource(r.focus); err != nil {
		return false, err
	}

	if len(r.right) > 0 {
		r.left, r.right = r.right, r.left
	}

	want := min(int64(r.opts.BufferSize), r.size-r.focus)
	buf := r.right[:want]
	n, err := io.ReadFull(r.src, buf)
	r.right = buf[:n]
	r.center = r.focus
	r.srcPos = r.focus + int64(n)

	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		r.srcPos = -1
		return false, err
	}

	r.refilled(Forward, n)

	return n > 0, nil
}

// moveLeft loads a fresh left window ending at the focus. The old left
// window, when non-empty, becomes the right window.
func (r *Reader) moveLeft() (bool, error) {
	invariant(r.center-r.focus == int64(len(r.left)), "moveLeft with focus %d inside window", r.focus)

	if r.focus == 0 {
		return false, nil
	}

	start := max(r.focus-int64(r.opts.BufferSize), 0)
	want := r.focus - start

	if err := r.seekSource(start); err != nil {
		return false, err
	}

	if len(r.left) > 0 {
		r.left, r.right = r.right, r.left
	}

	buf := r.left[:want]
	n, err := io.ReadFull(r.src, buf)
	r.srcPos = start + int64(n)
	if err != nil {
		// A short history window cannot end at the focus; drop it entirely.
		r.left = r.left[:0]
		r.right = r.right[:0]
		r.center = r.focus
		r.srcPos = -1
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, fmt.Errorf("%w: got %d of %d bytes at %d", ErrShortWindow, n, want, start)
		}
		return false, err
	}

	r.left = buf
	r.center = r.focus

	r.refilled(Backward, n)

	return true, nil
}

func (r *Reader) seekSource(off int64) error {
	if r.srcPos == off {
		return nil
	}
	if _, err := r.src.Seek(off, io.SeekStart); err != nil {
		r.srcPos = -1
		return err
	}
	r.srcPos = off
	return nil
}

func (r *Reader) refilled(dir Direction, n int) {
	r.opts.Observer.OnRefill(dir, n)
	if r.opts.Logger != nil {
		r.opts.Logger.Debug("cursor refill", "direction", dir.String(), "center", r.center, "bytes", n)
	}
}

func join(pieces [][]byte, total int) []byte {
	out := make([]byte, 0, total)
	for i := len(pieces) - 1; i >= 0; i-- {
		out = append(out, pieces[i]...)
	}
	return out
}
