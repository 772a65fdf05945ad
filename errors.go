package seekline

import (
	"errors"
	"fmt"
	"os"

	"github.com/hupe1980/seekline/compress"
)

var (
	// ErrNotFound is returned when a file or object does not exist.
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned when a File is used after Close.
	ErrClosed = errors.New("file closed")

	// ErrNotSeekable is returned when random access is requested on a
	// compressed file.
	ErrNotSeekable = errors.New("compressed file is not seekable")
)

// ErrUnsorted indicates that a key did not follow the sort order seen so far.
type ErrUnsorted struct {
	// Offset is the line start of the offending line.
	Offset int64
	// Line is the offending line.
	Line string
}

func (e *ErrUnsorted) Error() string {
	return fmt.Sprintf("unsorted input at offset %d: %q", e.Offset, e.Line)
}

// translateError maps package level errors onto the public sentinels. The
// original error stays reachable through errors.Unwrap.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	// blobstore.ErrNotFound aliases os.ErrNotExist.
	if errors.Is(err, os.ErrNotExist) && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, compress.ErrUnsupportedSeek) && !errors.Is(err, ErrNotSeekable) {
		return fmt.Errorf("%w: %w", ErrNotSeekable, err)
	}
	if errors.Is(err, compress.ErrClosed) && !errors.Is(err, ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}

	return err
}
