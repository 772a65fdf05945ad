package estimate

import (
	"bytes"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/hupe1980/seekline/compress"
	"github.com/hupe1980/seekline/internal/fs"
	"github.com/hupe1980/seekline/testutil"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compressed(t *testing.T, data []byte, alg compress.Algorithm) (*compress.Reader, []byte) {
	t.Helper()
	enc := testutil.Compress(t, data, alg)
	r, err := compress.NewReader(bytes.NewReader(enc), alg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r, enc
}

func tell(t *testing.T, s io.Seeker) int64 {
	t.Helper()
	off, err := s.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	return off
}

func TestCompressionRatio_Uncompressed(t *testing.T) {
	rs := fs.NewFaultyReadSeeker(bytes.NewReader(testutil.FixedLines(10, 5)), fs.Fault{FailAfterBytes: 0, FailOnSeek: true})

	est, err := CompressionRatio(rs)
	require.NoError(t, err)
	assert.Equal(t, 1.0, est.Value)
	assert.Equal(t, int64(0), rs.BytesRead())
}

func TestLineLength_FixedLines(t *testing.T) {
	data := testutil.FixedLines(10000, 20)

	est, err := LineLength(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 20.0, est.Value)
	assert.GreaterOrEqual(t, est.Samples, int64(DefaultBootstrapLines))
}

func TestLineCount_FixedLines(t *testing.T) {
	data := testutil.FixedLines(10000, 20)

	count, err := LineCount(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, int64(10000), count)

	size, err := FileSize(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), size)
}

func TestLineCount_Compressed(t *testing.T) {
	data := testutil.FixedLines(10000, 20)

	for _, alg := range []compress.Algorithm{compress.Gzip, compress.Zstd, compress.LZ4} {
		t.Run(alg.String(), func(t *testing.T) {
			r, _ := compressed(t, data, alg)

			length, err := LineLength(r)
			require.NoError(t, err)
			assert.Equal(t, 20.0, length.Value)

			size, err := FileSize(r)
			require.NoError(t, err)
			assert.InEpsilon(t, float64(len(data)), float64(size), 0.01)

			count, err := LineCount(r)
			require.NoError(t, err)
			assert.InEpsilon(t, 10000, float64(count), 0.01)
		})
	}
}

func TestLineCount_Statistical(t *testing.T) {
	const (
		trials   = 20
		lines    = 20000
		maxError = 0.5
	)

	optFns := []Option{WithMaxError(maxError), WithProbability(0.9), WithBootstrapLines(500)}

	within := 0
	for trial := 0; trial < trials; trial++ {
		rng := testutil.NewRNG(int64(1000 + trial))
		data := rng.VariableLines(lines, 10, 30)
		mean := float64(len(data)) / lines

		est, err := LineLength(bytes.NewReader(data), optFns...)
		require.NoError(t, err)
		require.True(t, est.Converged, "trial %d sampled the whole stream", trial)
		assert.Less(t, est.Samples, int64(lines))
		if math.Abs(est.Value-mean) <= maxError {
			within++
		}

		count, err := LineCount(bytes.NewReader(data), optFns...)
		require.NoError(t, err)
		assert.InEpsilon(t, lines, float64(count), 0.05, "trial %d", trial)
	}

	assert.GreaterOrEqual(t, within, 18)
}

func TestCompressionRatio_Exhausted(t *testing.T) {
	data := testutil.NewRNG(1).VariableLines(2000, 10, 30)
	r, enc := compressed(t, data, compress.Gzip)

	est, err := CompressionRatio(r)
	require.NoError(t, err)
	assert.True(t, est.Exhausted)
	assert.False(t, est.Converged)
	assert.Equal(t, int64(len(data)), est.Samples)
	assert.InDelta(t, float64(len(enc))/float64(len(data)), est.Value, 0.01)
}

func TestCompressionRatio_Converges(t *testing.T) {
	data := testutil.NewRNG(2).VariableLines(60000, 10, 30)
	r, enc := compressed(t, data, compress.Gzip)

	est, err := CompressionRatio(r, WithChunkSize(4096), WithBootstrapBytes(64<<10))
	require.NoError(t, err)
	assert.True(t, est.Converged)
	assert.Less(t, est.Samples, int64(len(data)))
	assert.InDelta(t, float64(len(enc))/float64(len(data)), est.Value, 0.02)
}

func TestCompressionRatio_StoredBlocks(t *testing.T) {
	data := testutil.FixedLines(100000, 10)

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.NoCompression)
	require.NoError(t, err)
	_, err = zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	r, err := compress.NewReader(bytes.NewReader(buf.Bytes()), compress.Gzip)
	require.NoError(t, err)
	defer r.Close()

	est, err := CompressionRatio(r, WithChunkSize(4096), WithBootstrapBytes(64<<10))
	require.NoError(t, err)
	assert.True(t, est.Converged)
	assert.GreaterOrEqual(t, est.Samples, int64(64<<10))
	assert.Less(t, est.Samples, int64(len(data)))
	assert.InDelta(t, 1.0, est.Value, 0.001)
}

func TestCompressionRatio_Truncated(t *testing.T) {
	data := testutil.NewRNG(3).VariableLines(5000, 10, 30)
	enc := testutil.Compress(t, data, compress.Gzip)

	r, err := compress.NewReader(bytes.NewReader(enc[:len(enc)/2]), compress.Gzip)
	require.NoError(t, err)

	est, err := CompressionRatio(r)
	require.NoError(t, err)
	assert.True(t, est.Truncated)
	assert.False(t, est.Exhausted)
	assert.Greater(t, est.Value, 0.0)
	assert.Less(t, est.Samples, int64(len(data)))

	length, err := LineLength(r)
	require.NoError(t, err)
	assert.True(t, length.Truncated)
}

func TestEstimators_EmptyCompressed(t *testing.T) {
	r, _ := compressed(t, nil, compress.Gzip)

	est, err := CompressionRatio(r)
	require.NoError(t, err)
	assert.True(t, math.IsInf(est.Value, 1))
	assert.True(t, est.Exhausted)

	size, err := FileSize(r)
	require.NoError(t, err)
	assert.Equal(t, int64(0), size)

	length, err := LineLength(r)
	require.NoError(t, err)
	assert.Equal(t, 0.0, length.Value)

	count, err := LineCount(r)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestEstimators_EmptyStream(t *testing.T) {
	length, err := LineLength(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Estimate{Exhausted: true}, length)

	count, err := LineCount(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestEstimators_RestorePosition(t *testing.T) {
	data := testutil.FixedLines(500, 12)

	t.Run("uncompressed", func(t *testing.T) {
		src := bytes.NewReader(data)
		_, err := src.Seek(13, io.SeekStart)
		require.NoError(t, err)

		_, err = CompressionRatio(src)
		require.NoError(t, err)
		_, err = FileSize(src)
		require.NoError(t, err)
		_, err = LineLength(src)
		require.NoError(t, err)
		_, err = LineCount(src)
		require.NoError(t, err)

		assert.Equal(t, int64(13), tell(t, src))
	})

	t.Run("compressed", func(t *testing.T) {
		r, _ := compressed(t, data, compress.Zstd)
		_, err := r.Seek(13, io.SeekStart)
		require.NoError(t, err)

		_, err = LineCount(r)
		require.NoError(t, err)
		assert.Equal(t, int64(13), tell(t, r))

		buf := make([]byte, 11)
		_, err = io.ReadFull(r, buf)
		require.NoError(t, err)
		assert.Equal(t, data[13:24], buf)
	})
}

func TestEstimators_RestorePositionOnError(t *testing.T) {
	data := testutil.FixedLines(1000, 20)
	src := fs.NewFaultyReadSeeker(bytes.NewReader(data), fs.Fault{FailAfterBytes: 100})
	_, err := src.Seek(7, io.SeekStart)
	require.NoError(t, err)

	_, err = LineLength(src)
	require.ErrorIs(t, err, fs.ErrInjected)
	assert.Equal(t, int64(7), tell(t, src))

	_, err = LineCount(src)
	require.ErrorIs(t, err, fs.ErrInjected)
	assert.Equal(t, int64(7), tell(t, src))
}

func TestFileSize_KeepPosition(t *testing.T) {
	data := testutil.FixedLines(10, 10)
	src := bytes.NewReader(data)

	size, err := FileSize(src, WithKeepPosition())
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), size)
	assert.Equal(t, int64(len(data)), tell(t, src))
}

func TestLineLength_KeepPosition(t *testing.T) {
	data := testutil.FixedLines(1000, 20)

	t.Run("uncompressed", func(t *testing.T) {
		src := bytes.NewReader(data)

		est, err := LineLength(src, WithBootstrapLines(10), WithKeepPosition())
		require.NoError(t, err)
		assert.True(t, est.Converged)
		assert.Equal(t, int64(11), est.Samples)
		assert.Equal(t, int64(11*20), tell(t, src))
	})

	t.Run("compressed", func(t *testing.T) {
		r, _ := compressed(t, data, compress.Gzip)

		est, err := LineLength(r, WithBootstrapLines(10), WithKeepPosition())
		require.NoError(t, err)
		assert.True(t, est.Converged)
		assert.Equal(t, int64(11*20), tell(t, r))

		line := make([]byte, 20)
		_, err = io.ReadFull(r, line)
		require.NoError(t, err)
		assert.Equal(t, data[11*20:12*20], line)
	})
}

func TestLineLength_BootstrapIsExclusive(t *testing.T) {
	data := testutil.FixedLines(10, 20)

	est, err := LineLength(bytes.NewReader(data), WithBootstrapLines(10))
	require.NoError(t, err)
	assert.False(t, est.Converged)
	assert.True(t, est.Exhausted)
	assert.Equal(t, int64(10), est.Samples)
}

func TestOptions_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		option Option
		err    error
	}{
		{"zero max error", WithMaxError(0), ErrInvalidMaxError},
		{"negative max error", WithMaxError(-1), ErrInvalidMaxError},
		{"nan max error", WithMaxError(math.NaN()), ErrInvalidMaxError},
		{"probability one", WithProbability(1), ErrInvalidProbability},
		{"negative probability", WithProbability(-0.1), ErrInvalidProbability},
		{"zero chunk", WithChunkSize(0), ErrInvalidChunkSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := strings.NewReader("a\n")

			_, err := CompressionRatio(src, tt.option)
			require.ErrorIs(t, err, tt.err)
			_, err = FileSize(src, tt.option)
			require.ErrorIs(t, err, tt.err)
			_, err = LineLength(src, tt.option)
			require.ErrorIs(t, err, tt.err)
			_, err = LineCount(src, tt.option)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestSplitOptions(t *testing.T) {
	opts, err := applyOptions(nil)
	require.NoError(t, err)

	sub := opts.split()
	assert.InDelta(t, DefaultMaxError/2, sub.MaxError, 1e-12)
	assert.InDelta(t, 1-math.Sqrt(1-DefaultProbability), sub.Probability, 1e-12)
	assert.True(t, sub.KeepPosition)
	assert.InDelta(t, 10.0, chebyshevK(0.99), 1e-9)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := LineCount(bytes.NewReader(testutil.FixedLines(100, 8)), WithLogger(logger))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "estimate line length")
	assert.Contains(t, out, "estimate line count")
	assert.Contains(t, out, "reason=exhausted")
}
