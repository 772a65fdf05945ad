package mmap

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

var (
	// ErrClosed is returned when reading from an unmapped file.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidOffset is returned for a negative read or seek offset.
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)

// Advice tells the kernel how the mapped lines will be visited.
type Advice int

const (
	// Normal restores the default read-ahead.
	Normal Advice = iota
	// Sequential suits a front to back pass such as line iteration.
	Sequential
	// Random suits bisection, which touches a few scattered pages.
	Random
)

func (a Advice) String() string {
	switch a {
	case Sequential:
		return "sequential"
	case Random:
		return "random"
	default:
		return "normal"
	}
}

// Mapping is a read-only memory-mapped file.
type Mapping struct {
	data   []byte
	closed atomic.Bool
	unmap  func() error
}

// Open maps the file at path. An empty file yields an empty mapping without
// a system mapping behind it. The descriptor is closed before Open returns.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := fi.Size()
	if size == 0 {
		return &Mapping{}, nil
	}
	if int64(int(size)) != size {
		return nil, fmt.Errorf("mmap: %s: size %d exceeds address space", path, size)
	}

	data, unmap, err := mapReadOnly(f, int(size))
	if err != nil {
		return nil, fmt.Errorf("mmap: %s: %w", path, err)
	}
	return &Mapping{data: data, unmap: unmap}, nil
}

// Close unmaps the file. It is idempotent.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) || m.unmap == nil {
		return nil
	}
	return m.unmap()
}

// Bytes returns the mapped content, or nil after Close. The slice must not be
// used once the mapping is closed.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Size returns the length of the mapped file.
func (m *Mapping) Size() int64 { return int64(len(m.data)) }

// Advise passes an access hint to the kernel. Hints are best effort.
func (m *Mapping) Advise(a Advice) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if len(m.data) == 0 {
		return nil
	}
	return advise(m.data, a)
}

// ReadAt implements io.ReaderAt.
func (m *Mapping) ReadAt(p []byte, off int64) (int, error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrInvalidOffset
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
