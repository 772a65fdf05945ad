package mmap

import (
	"fmt"
	"io"
)

// Reader is a seekable stream over a Mapping. It does not own the mapping
// and carries its own offset, so it must not be shared between goroutines.
type Reader struct {
	m   *Mapping
	pos int64
}

// Reader returns a stream over the whole mapping positioned at offset 0.
func (m *Mapping) Reader() *Reader {
	return &Reader{m: m}
}

// Mapping returns the mapping r reads from.
func (r *Reader) Mapping() *Mapping { return r.m }

// Size returns the length of the mapping.
func (r *Reader) Size() int64 { return r.m.Size() }

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.m.ReadAt(p, r.pos)
	r.pos += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

// ReadAt implements io.ReaderAt.
func (r *Reader) ReadAt(p []byte, off int64) (int, error) {
	return r.m.ReadAt(p, off)
}

// Seek implements io.Seeker. Seeking past the end is allowed; reads there
// return io.EOF.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.pos + offset
	case io.SeekEnd:
		abs = r.m.Size() + offset
	default:
		return r.pos, fmt.Errorf("mmap: invalid whence %d", whence)
	}
	if abs < 0 {
		return r.pos, ErrInvalidOffset
	}
	r.pos = abs
	return abs, nil
}
