package search

import (
	"bytes"
	"cmp"
	"fmt"
	"io"

	"github.com/hupe1980/seekline/cursor"
	"github.com/hupe1980/seekline/internal/position"
)

// Anchor marks a line start and the key of that line.
type Anchor[K any] struct {
	Offset int64
	Key    K
}

// Searcher finds lines by key in a stream sorted by that key.
//
// The key function receives a line without its terminator and must be pure
// and consistent with the stream's sort order. A Searcher assumes exclusive
// use of its Reader during a call.
type Searcher[K any] struct {
	r       *cursor.Reader
	keyFunc func(line []byte) K
	compare func(a, b K) int
	opts    Options

	first Anchor[K]
	last  Anchor[K]
}

// NewOrdered creates a Searcher for naturally ordered keys.
func NewOrdered[K cmp.Ordered](r *cursor.Reader, keyFunc func(line []byte) K, optFns ...Option) (*Searcher[K], error) {
	return New(r, keyFunc, cmp.Compare[K], optFns...)
}

// New creates a Searcher with an explicit comparison function, which returns
// a negative number, zero or a positive number as a < b, a == b or a > b.
//
// New reads the first and the last line to establish the search anchors. The
// Reader's focus is restored before New returns.
func New[K any](r *cursor.Reader, keyFunc func(line []byte) K, compare func(a, b K) int, optFns ...Option) (*Searcher[K], error) {
	s := &Searcher[K]{
		r:       r,
		keyFunc: keyFunc,
		compare: compare,
		opts:    applyOptions(optFns),
	}

	if r.Size() == 0 {
		return s, nil
	}

	err := position.Scope(r, true, func() error {
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return err
		}
		line, err := r.ReadLineForward(cursor.Unlimited)
		if err != nil {
			return err
		}
		s.first = Anchor[K]{Offset: 0, Key: s.key(line)}

		if _, err := r.Seek(0, io.SeekEnd); err != nil {
			return err
		}
		line, err = r.ReadLineBackward(cursor.Unlimited, cursor.Greedy)
		if err != nil {
			return err
		}
		s.last = Anchor[K]{Offset: r.Tell(), Key: s.key(line)}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search: anchors: %w", err)
	}

	return s, nil
}

// First returns the anchor of the first line.
func (s *Searcher[K]) First() Anchor[K] { return s.first }

// Last returns the anchor of the last line.
func (s *Searcher[K]) Last() Anchor[K] { return s.last }

// FindFirstAtLeast positions the Reader at the start of the first line whose
// key is >= target and returns that offset. If no such line exists the Reader
// is left at the end of the stream and its size is returned.
func (s *Searcher[K]) FindFirstAtLeast(target K) (off int64, err error) {
	var probes, scanned int
	defer func() {
		s.opts.Observer.OnSearch(probes, scanned, err)
		if s.opts.Logger != nil {
			s.opts.Logger.Debug("search finished", "offset", off, "probes", probes, "scanned", scanned, "error", err)
		}
	}()

	size := s.r.Size()
	if size == 0 || s.compare(target, s.first.Key) <= 0 {
		return s.r.Seek(0, io.SeekStart)
	}
	if s.compare(target, s.last.Key) > 0 {
		return s.r.Seek(0, io.SeekEnd)
	}

	left, leftKey := s.first.Offset, s.first.Key
	right, rightKey := s.last.Offset, s.last.Key

	for {
		if !(s.compare(leftKey, target) < 0 && s.compare(target, rightKey) <= 0) {
			panic(fmt.Sprintf("search: bracket [%d, %d] lost the target", left, right))
		}

		mid := left + (right-left)/2
		if _, err := s.r.Seek(mid, io.SeekStart); err != nil {
			return s.r.Tell(), err
		}
		if _, err := s.r.ReadLineBackward(cursor.Unlimited, cursor.NonGreedy); err != nil {
			return s.r.Tell(), err
		}
		mid = s.r.Tell()
		probes++

		if mid == left {
			if s.opts.Logger != nil {
				s.opts.Logger.Debug("search bisection exhausted, scanning", "offset", left)
			}
			return s.scan(target, &scanned)
		}

		line, err := s.r.ReadLineForward(cursor.Unlimited)
		if err != nil {
			return s.r.Tell(), err
		}
		midKey := s.key(line)

		if s.compare(midKey, target) < 0 {
			left, leftKey = mid, midKey
		} else {
			right, rightKey = mid, midKey
		}
	}
}

// scan walks forward from the current line, whose key is below target, to the
// first line with a key >= target.
func (s *Searcher[K]) scan(target K, scanned *int) (int64, error) {
	line, err := s.r.ReadLineForward(cursor.Unlimited)
	if err != nil {
		return s.r.Tell(), err
	}
	if s.compare(s.key(line), target) >= 0 {
		panic("search: scan started at a line not below the target")
	}

	for !s.r.AtEnd() {
		start := s.r.Tell()
		line, err := s.r.ReadLineForward(cursor.Unlimited)
		if err != nil {
			return s.r.Tell(), err
		}
		*scanned++

		if s.compare(s.key(line), target) >= 0 {
			return s.r.Seek(start, io.SeekStart)
		}
	}

	return s.r.Tell(), nil
}

func (s *Searcher[K]) key(line []byte) K {
	return s.keyFunc(bytes.TrimSuffix(line, []byte{'\n'}))
}
