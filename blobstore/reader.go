package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/seekline/internal/resource"
)

// ErrInvalidOffset is returned for seeks to a negative offset.
var ErrInvalidOffset = errors.New("blobstore: invalid offset")

// Reader adapts a Blob to io.ReadSeeker so it can back a cursor. Every read
// is charged against the IO budget of the resource controller, if any.
//
// Reader does not own the blob; closing the blob is up to the caller.
type Reader struct {
	ctx  context.Context
	blob Blob
	rc   *resource.Controller
	pos  int64
}

// NewReader creates a Reader over blob. ctx bounds every read.
func NewReader(ctx context.Context, blob Blob, rc *resource.Controller) *Reader {
	return &Reader{ctx: ctx, blob: blob, rc: rc}
}

// Blob returns the wrapped blob.
func (r *Reader) Blob() Blob { return r.blob }

// Size returns the size of the blob.
func (r *Reader) Size() int64 { return r.blob.Size() }

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.ReadAt(p, r.pos)
	r.pos += int64(n)
	if errors.Is(err, io.EOF) && n > 0 {
		err = nil
	}
	return n, err
}

// ReadAt implements io.ReaderAt.
func (r *Reader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidOffset, off)
	}
	size := r.blob.Size()
	if off >= size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	want := p
	if rest := size - off; int64(len(want)) > rest {
		want = want[:rest]
	}

	if err := r.rc.AcquireIO(r.ctx, len(want)); err != nil {
		return 0, err
	}

	n, err := r.blob.ReadAt(r.ctx, want, off)
	if err == nil && n < len(p) {
		err = io.EOF
	}
	return n, err
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
		abs = r.blob.Size() + offset
	default:
		return r.pos, fmt.Errorf("blobstore: invalid whence %d", whence)
	}
	if abs < 0 {
		return r.pos, fmt.Errorf("%w: %d", ErrInvalidOffset, abs)
	}
	r.pos = abs
	return abs, nil
}
