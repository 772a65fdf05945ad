package seekline

import (
	"bytes"
	"errors"
	"io"

	"github.com/hupe1980/seekline/internal/mmap"
	"github.com/hupe1980/seekline/internal/position"
	"github.com/hupe1980/seekline/stats"
)

// Progress reports how far a Lines iteration has come. The expected values
// are running estimates and firm up as more of the file is read.
type Progress struct {
	Lines         int64
	ExpectedLines int64
	Bytes         int64
	ExpectedBytes int64
}

// Fraction returns the completed fraction in [0, 1] based on bytes.
func (p Progress) Fraction() float64 {
	if p.ExpectedBytes <= 0 {
		return 1
	}
	return min(float64(p.Bytes)/float64(p.ExpectedBytes), 1)
}

type lineOptions struct {
	skipEmpty bool
}

// LineOption configures Lines.
type LineOption func(*lineOptions)

// SkipEmpty skips lines that contain only whitespace. Skipped lines still
// count toward the line index.
func SkipEmpty() LineOption {
	return func(o *lineOptions) {
		o.skipEmpty = true
	}
}

// Lines calls fn for every line of the decoded file, terminator included, in
// order. i is the zero-based line index. The line is only valid during the
// call. Returning ErrStop ends the iteration without an error.
//
// Lines works on compressed files and restores the stream position when it
// returns.
func (f *File) Lines(fn func(i int64, line []byte, p Progress) error, optFns ...LineOption) error {
	if f.closed {
		return ErrClosed
	}

	var opts lineOptions
	for _, o := range optFns {
		o(&opts)
	}

	if r, ok := f.stream.(*mmap.Reader); ok {
		_ = r.Mapping().Advise(mmap.Sequential)
		defer func() { _ = r.Mapping().Advise(mmap.Random) }()
	}

	err := position.Scope(f.stream, true, func() error {
		if _, err := f.stream.Seek(0, io.SeekStart); err != nil {
			return err
		}
		c, err := stats.NewCountingReader(f.stream)
		if err != nil {
			return err
		}

		for i := int64(0); ; i++ {
			line, err := c.ReadLine()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			if opts.skipEmpty && len(bytes.TrimSpace(line)) == 0 {
				continue
			}

			s := c.Stream()
			p := Progress{
				Lines:         i + 1,
				ExpectedLines: c.EstimatedLineCount(),
				Bytes:         s.DecompressedRead,
				ExpectedBytes: c.EstimatedSize(),
			}
			if err := fn(i, line, p); err != nil {
				return err
			}
		}
	})
	if errors.Is(err, ErrStop) {
		return nil
	}
	return translateError(err)
}
