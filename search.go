package seekline

import (
	"bytes"
	"cmp"
	"errors"
	"io"
	"time"

	"github.com/hupe1980/seekline/cursor"
	"github.com/hupe1980/seekline/search"
)

// Match is the result of a search.
type Match struct {
	// Offset is the start of the first line whose key is >= the target, or
	// the file size if there is none.
	Offset int64
	// Line is that line without its terminator.
	Line []byte
	// Found reports whether such a line exists.
	Found bool
	// Exact reports whether its key equals the target.
	Exact bool
}

// Search finds the first line of f whose key is >= target. The lines of f
// must be sorted by key. key receives a line without its terminator.
//
//	f, _ := seekline.Open("access.log")
//	defer f.Close()
//	m, err := seekline.Search(f, func(line []byte) string {
//	    return string(line[:19]) // RFC 3339 timestamp prefix
//	}, "2024-03-01T00:00:00")
func Search[K cmp.Ordered](f *File, key func(line []byte) K, target K) (Match, error) {
	return SearchFunc(f, key, cmp.Compare[K], target)
}

// SearchFunc is like Search but orders keys with compare.
func SearchFunc[K any](f *File, key func(line []byte) K, compare func(a, b K) int, target K) (m Match, err error) {
	start := time.Now()
	var probe searchProbe
	defer func() {
		f.opts.metricsCollector.RecordSearch(probe.probes, probe.scanned, time.Since(start), err)
		f.logger.LogSearch(f.ctx, m.Offset, probe.probes, probe.scanned, time.Since(start), err)
	}()

	c, err := f.Cursor()
	if err != nil {
		return m, err
	}
	defer c.Close()

	s, err := search.New(c, key, compare,
		search.WithLogger(f.logger.Logger),
		search.WithObserver(&probe),
	)
	if err != nil {
		return m, translateError(err)
	}

	if m.Offset, err = s.FindFirstAtLeast(target); err != nil {
		return m, translateError(err)
	}
	if c.AtEnd() {
		return m, nil
	}

	line, err := c.ReadLineForward(cursor.Unlimited)
	if err != nil {
		return m, translateError(err)
	}
	m.Line = bytes.TrimSuffix(line, []byte{'\n'})
	m.Found = true
	m.Exact = compare(key(m.Line), target) == 0
	return m, nil
}

// ErrStop can be returned by a Scan or Lines callback to end the iteration
// early without an error.
var ErrStop = errors.New("stop iteration")

// Scan calls fn for every line of f with from <= key < to, in file order.
// Lines are passed without their terminator and are only valid during the
// call. A key below its predecessor yields an *ErrUnsorted error.
func Scan[K cmp.Ordered](f *File, key func(line []byte) K, from, to K, fn func(offset int64, line []byte) error) error {
	if cmp.Compare(from, to) >= 0 {
		return nil
	}

	m, err := Search(f, key, from)
	if err != nil || !m.Found {
		return err
	}

	c, err := f.Cursor()
	if err != nil {
		return err
	}
	defer c.Close()

	if _, err := c.Seek(m.Offset, io.SeekStart); err != nil {
		return translateError(err)
	}

	prev := from
	for !c.AtEnd() {
		offset := c.Tell()
		line, err := c.ReadLineForward(cursor.Unlimited)
		if err != nil {
			return translateError(err)
		}
		line = bytes.TrimSuffix(line, []byte{'\n'})

		k := key(line)
		if cmp.Less(k, prev) {
			return &ErrUnsorted{Offset: offset, Line: string(line)}
		}
		if cmp.Compare(k, to) >= 0 {
			return nil
		}
		prev = k

		if err := fn(offset, line); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	return nil
}
