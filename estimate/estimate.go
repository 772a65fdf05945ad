package estimate

import (
	"errors"
	"io"
	"math"

	"github.com/hupe1980/seekline/internal/position"
	"github.com/hupe1980/seekline/stats"
)

var (
	// ErrInvalidMaxError is returned for a non-positive or non-finite error bound.
	ErrInvalidMaxError = errors.New("estimate: max error must be positive")
	// ErrInvalidProbability is returned for a probability outside [0, 1).
	ErrInvalidProbability = errors.New("estimate: probability must be in [0, 1)")
	// ErrInvalidChunkSize is returned for a non-positive chunk size.
	ErrInvalidChunkSize = errors.New("estimate: chunk size must be positive")
)

// Estimate is the result of a sequential estimator.
type Estimate struct {
	// Value is the estimate.
	Value float64
	// Samples is the sample size: decoded bytes for ratios, lines for lengths.
	Samples int64
	// Converged reports that sampling stopped on the error bound.
	Converged bool
	// Exhausted reports that sampling stopped at the end of the stream.
	Exhausted bool
	// Truncated reports that the compressed stream ended before its frame was
	// complete. Value covers the bytes decoded up to that point.
	Truncated bool
}

func (e Estimate) reason() string {
	switch {
	case e.Truncated:
		return "truncated"
	case e.Exhausted:
		return "exhausted"
	default:
		return "converged"
	}
}

// CompressionRatio estimates compressed bytes per decoded byte. A stream that
// does not decode a transport has ratio 1 and is not read. A compressed
// stream that decodes to nothing has ratio +Inf.
func CompressionRatio(rs io.ReadSeeker, optFns ...Option) (Estimate, error) {
	opts, err := applyOptions(optFns)
	if err != nil {
		return Estimate{}, err
	}
	return compressionRatio(rs, opts)
}

// FileSize estimates the decoded size of rs. The size of an uncompressed
// stream is exact.
func FileSize(rs io.ReadSeeker, optFns ...Option) (int64, error) {
	opts, err := applyOptions(optFns)
	if err != nil {
		return 0, err
	}
	return fileSize(rs, opts)
}

// LineLength estimates the mean line length in bytes, terminator included.
// It returns 0 for a stream without lines.
func LineLength(rs io.ReadSeeker, optFns ...Option) (Estimate, error) {
	opts, err := applyOptions(optFns)
	if err != nil {
		return Estimate{}, err
	}
	return lineLength(rs, opts, opts.KeepPosition)
}

// LineCount estimates the number of lines as the estimated decoded size over
// the estimated mean line length. The error budget and confidence are split
// between the two estimates.
func LineCount(rs io.ReadSeeker, optFns ...Option) (int64, error) {
	opts, err := applyOptions(optFns)
	if err != nil {
		return 0, err
	}

	sub := opts.split()

	var count int64
	err = position.Scope(rs, !opts.KeepPosition, func() error {
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return err
		}

		size, err := fileSize(rs, sub)
		if err != nil {
			return err
		}
		length, err := lineLength(rs, sub, false)
		if err != nil {
			return err
		}

		if length.Value > 0 {
			count = int64(float64(size) / length.Value)
		}
		if opts.Logger != nil {
			opts.Logger.Debug("estimate line count", "count", count, "size", size, "line_length", length.Value)
		}
		return nil
	})

	return count, err
}

func compressionRatio(rs io.ReadSeeker, opts Options) (Estimate, error) {
	t, ok := stats.TransportOf(rs)
	if !ok {
		return Estimate{Value: 1, Converged: true}, nil
	}

	var est Estimate
	err := position.Scope(rs, !opts.KeepPosition, func() error {
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return err
		}
		var err error
		est, err = sampleRatio(rs, t, opts)
		return err
	})
	if err != nil {
		return est, err
	}

	if opts.Logger != nil {
		opts.Logger.Debug("estimate compression ratio", "ratio", est.Value, "samples", est.Samples, "reason", est.reason())
	}
	return est, nil
}

// sampleRatio compares transport and decoded bytes at refill checkpoints:
// the state just before a read that made the decoder pull more transport.
// At that point the decoder had handed over what it decoded, so the pair is
// unaffected by output it still buffers. A block codec may finish the
// previous block within the same read, which can undercount the decoded side
// by less than one ChunkSize.
func sampleRatio(r io.Reader, t stats.Transport, opts Options) (Estimate, error) {
	k := chebyshevK(opts.Probability)
	buf := make([]byte, opts.ChunkSize)
	initial := t.TransportOffset()

	var decompressed int64
	for {
		before, decoded := t.TransportOffset(), decompressed

		n, err := r.Read(buf)
		decompressed += int64(n)

		total := Estimate{Value: ratio(t.TransportOffset()-initial, decompressed), Samples: decompressed}
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			total.Exhausted = true
			return total, nil
		case errors.Is(err, io.ErrUnexpectedEOF):
			total.Truncated = true
			return total, nil
		default:
			return total, err
		}

		if t.TransportOffset() == before || decoded == 0 {
			continue
		}

		if decoded >= opts.BootstrapBytes {
			est := Estimate{Value: ratio(before-initial, decoded), Samples: decoded}
			if k*ratioStdErr(est.Value, decoded) <= opts.MaxError {
				est.Converged = true
				return est, nil
			}
		}
	}
}

func fileSize(rs io.ReadSeeker, opts Options) (int64, error) {
	t, ok := stats.TransportOf(rs)
	if !ok {
		return position.Size(rs, !opts.KeepPosition)
	}

	est, err := compressionRatio(rs, opts)
	if err != nil {
		return 0, err
	}
	return int64(float64(t.TransportSize()) / est.Value), nil
}

// lineLength samples lines from the start of rs. With settle the stream is
// left right after the last sampled line rather than at the read-ahead.
func lineLength(rs io.ReadSeeker, opts Options, settle bool) (Estimate, error) {
	k := chebyshevK(opts.Probability)

	var est Estimate
	err := position.Scope(rs, !opts.KeepPosition, func() error {
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return err
		}
		c, err := stats.NewCountingReader(rs)
		if err != nil {
			return err
		}

		for {
			_, err := c.ReadLine()
			lines := c.Lines()
			est = Estimate{Value: lines.Mean(), Samples: lines.Count}

			switch {
			case err == nil:
			case errors.Is(err, io.EOF):
				est.Exhausted = true
				return nil
			case errors.Is(err, io.ErrUnexpectedEOF) && c.Stream().Compressed:
				est.Truncated = true
				return nil
			default:
				return err
			}

			if lines.Count > opts.BootstrapLines && k*math.Sqrt(lines.VarianceOfMean()) < opts.MaxError {
				est.Converged = true
				if settle {
					return c.Settle()
				}
				return nil
			}
		}
	})
	if err != nil {
		return est, err
	}

	if opts.Logger != nil {
		opts.Logger.Debug("estimate line length", "mean", est.Value, "samples", est.Samples, "reason", est.reason())
	}
	return est, nil
}

func ratio(compressed, decompressed int64) float64 {
	if decompressed == 0 {
		return math.Inf(1)
	}
	return float64(compressed) / float64(decompressed)
}

// ratioStdErr treats every decoded byte as a Bernoulli trial with success
// probability ratio.
func ratioStdErr(ratio float64, n int64) float64 {
	return math.Sqrt(math.Abs(ratio*(1-ratio)) / float64(n))
}
