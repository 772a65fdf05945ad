package stats

import (
	"bytes"
	"math"
)

// LineLength is a running (count, sum, sum of squares) of line byte lengths.
// Lengths include the line terminator.
type LineLength struct {
	Count      int64
	Sum        int64
	SumSquares float64
}

// Add records one line of the given length.
func (s *LineLength) Add(length int64) {
	s.Count++
	s.Sum += length
	s.SumSquares += float64(length) * float64(length)
}

// Mean returns the mean line length, or 0 if no line was recorded.
func (s LineLength) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.Sum) / float64(s.Count)
}

// Variance returns the unbiased sample variance of the line lengths.
func (s LineLength) Variance() float64 {
	if s.Count < 2 {
		return 0
	}
	n := float64(s.Count)
	mean := float64(s.Sum) / n
	v := (s.SumSquares - n*mean*mean) / (n - 1)
	// Cancellation can leave a tiny negative residue.
	return math.Max(v, 0)
}

// VarianceOfMean returns the estimated variance of Mean.
func (s LineLength) VarianceOfMean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Variance() / float64(s.Count)
}

// Stream tracks how much of a possibly compressed stream has been read.
type Stream struct {
	// Compressed reports whether the stream decodes an underlying transport.
	Compressed bool
	// UnderlyingSize is the size of the underlying transport in bytes.
	UnderlyingSize int64
	// CompressedRead counts bytes consumed from the transport.
	CompressedRead int64
	// DecompressedRead counts decoded bytes drawn from the stream.
	DecompressedRead int64
}

// Ratio returns CompressedRead / DecompressedRead, or 1 if nothing was decoded.
func (s Stream) Ratio() float64 {
	if !s.Compressed || s.DecompressedRead == 0 {
		return 1
	}
	return float64(s.CompressedRead) / float64(s.DecompressedRead)
}

// EstimatedSize returns the known size of an uncompressed stream, or the
// underlying size scaled by the observed expansion for a compressed one.
// Before the first read of a compressed stream the underlying size stands in.
func (s Stream) EstimatedSize() int64 {
	if !s.Compressed || s.CompressedRead == 0 {
		return s.UnderlyingSize
	}
	expansion := float64(s.DecompressedRead) / float64(s.CompressedRead)
	return int64(expansion * float64(s.UnderlyingSize))
}

// EstimatedLineCount divides the estimated size by the mean observed line
// length. It returns 1 until the first line has completed.
func EstimatedLineCount(s Stream, l LineLength) int64 {
	if l.Count == 0 {
		return 1
	}
	return int64(float64(s.EstimatedSize()) / l.Mean())
}

// Accumulator feeds completed line lengths into a LineLength from chunks of
// arbitrary size. A line split across chunks is carried as a pending length.
type Accumulator struct {
	Lines   LineLength
	pending int64
}

// Observe consumes the next chunk of the stream.
func (a *Accumulator) Observe(chunk []byte) {
	for {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			a.pending += int64(len(chunk))
			return
		}
		a.Lines.Add(a.pending + int64(i) + 1)
		a.pending = 0
		chunk = chunk[i+1:]
	}
}

// Finish completes a trailing line without terminator. Call it at the end
// of the stream.
func (a *Accumulator) Finish() {
	if a.pending > 0 {
		a.Lines.Add(a.pending)
		a.pending = 0
	}
}

// Pending returns the length of the incomplete line seen so far.
func (a *Accumulator) Pending() int64 {
	return a.pending
}
