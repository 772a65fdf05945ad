package seekline

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/seekline/blobstore"
	"github.com/hupe1980/seekline/compress"
	"github.com/hupe1980/seekline/estimate"
	"github.com/hupe1980/seekline/internal/fs"
	"github.com/hupe1980/seekline/testutil"
)

func TestOpen_Plain(t *testing.T) {
	data := testutil.FixedLines(100, 10)
	path := testutil.WriteFile(t, t.TempDir(), "plain.log", data)

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, path, f.Name())
	assert.Equal(t, compress.None, f.Algorithm())
	assert.False(t, f.Compressed())
	assert.Equal(t, int64(len(data)), f.Size())

	c, err := f.Cursor()
	require.NoError(t, err)
	defer c.Close()

	line, err := c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "xxxxxxxxx\n", string(line))
}

func TestOpen_Compressed(t *testing.T) {
	data := testutil.FixedLines(10000, 20)

	for _, tc := range []struct {
		name string
		alg  compress.Algorithm
	}{
		{"data.log.gz", compress.Gzip},
		{"data.log.zst", compress.Zstd},
		{"data.log.lz4", compress.LZ4},
	} {
		t.Run(tc.alg.String(), func(t *testing.T) {
			enc := testutil.Compress(t, data, tc.alg)
			path := testutil.WriteFile(t, t.TempDir(), tc.name, enc)

			f, err := Open(path)
			require.NoError(t, err)
			defer f.Close()

			assert.Equal(t, tc.alg, f.Algorithm())
			assert.True(t, f.Compressed())
			assert.Equal(t, int64(len(enc)), f.Size())

			_, err = f.Cursor()
			require.ErrorIs(t, err, ErrNotSeekable)

			var buf bytes.Buffer
			n, err := f.WriteTo(&buf)
			require.NoError(t, err)
			assert.Equal(t, int64(len(data)), n)
			assert.Equal(t, data, buf.Bytes())

			report, err := f.Estimate()
			require.NoError(t, err)
			assert.Equal(t, tc.alg.String(), report.Algorithm)
			assert.InEpsilon(t, float64(len(enc))/float64(len(data)), report.CompressionRatio, 0.05)
			assert.InEpsilon(t, len(data), report.FileSize, 0.05)
			assert.Equal(t, 20.0, report.LineLength)
			assert.InEpsilon(t, 10000, report.LineCount, 0.05)
			assert.False(t, report.Truncated)
		})
	}
}

func TestOpen_SniffsContent(t *testing.T) {
	enc := testutil.Compress(t, []byte("a\nb\n"), compress.Gzip)
	path := testutil.WriteFile(t, t.TempDir(), "data.bin", enc)

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, compress.Gzip, f.Algorithm())
}

func TestOpen_WithAlgorithm(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "not-really.gz", []byte("a\nb\n"))

	f, err := Open(path, WithAlgorithm(compress.None))
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, f.Compressed())
	_, err = f.Cursor()
	require.NoError(t, err)
}

func TestOpen_NotFound(t *testing.T) {
	_, err := Open(t.TempDir() + "/missing.log")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpen_Mmap(t *testing.T) {
	fixture := testutil.NewRNG(3).SortedKeyedLines(2000, 3, 30)
	path := testutil.WriteFile(t, t.TempDir(), "keys.log", fixture.Data)

	f, err := Open(path, WithMmap(), WithBufferSize(128))
	require.NoError(t, err)
	defer f.Close()

	target := fixture.Keys[1234]
	m, err := Search(f, intKey, target)
	require.NoError(t, err)
	assert.Equal(t, fixture.FirstAtLeast(target), m.Offset)
	assert.True(t, m.Exact)
}

func TestOpen_MmapEmpty(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "empty.log", nil)

	f, err := Open(path, WithMmap())
	require.NoError(t, err)
	defer f.Close()

	m, err := Search(f, intKey, 5)
	require.NoError(t, err)
	assert.False(t, m.Found)
	assert.Equal(t, int64(0), m.Offset)
}

func TestOpen_FaultInjection(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "faulty.log", testutil.FixedLines(1000, 20))

	faulty := fs.NewFaultyFS(nil)
	faulty.AddRule("faulty.log", fs.Fault{FailAfterBytes: 100})

	f, err := Open(path, withFileSystem(faulty))
	require.NoError(t, err)
	defer f.Close()

	_, err = f.EstimateLineLength()
	require.ErrorIs(t, err, fs.ErrInjected)

	err = f.Lines(func(int64, []byte, Progress) error { return nil })
	require.ErrorIs(t, err, fs.ErrInjected)
}

func TestOpenBlob(t *testing.T) {
	data := testutil.FixedLines(500, 16)
	store := blobstore.NewMemoryStore()
	store.Put("logs/app.log.zst", testutil.Compress(t, data, compress.Zstd))
	store.Put("logs/app.log", data)

	t.Run("compressed", func(t *testing.T) {
		f, err := OpenBlob(context.Background(), store, "logs/app.log.zst")
		require.NoError(t, err)
		defer f.Close()

		assert.Equal(t, compress.Zstd, f.Algorithm())
		count, err := f.EstimateLineCount()
		require.NoError(t, err)
		assert.InEpsilon(t, 500, count, 0.05)
	})

	t.Run("plain", func(t *testing.T) {
		f, err := OpenBlob(context.Background(), store, "logs/app.log", WithResourceLimits(1<<20, 1<<30))
		require.NoError(t, err)
		defer f.Close()

		est, err := f.EstimateLineLength()
		require.NoError(t, err)
		assert.Equal(t, 16.0, est.Value)
		assert.True(t, est.Exhausted)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := OpenBlob(context.Background(), store, "logs/none.log")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestNewFile(t *testing.T) {
	f, err := NewFile("inline", strings.NewReader("b\na\n"))
	require.NoError(t, err)

	size, err := f.EstimateFileSize()
	require.NoError(t, err)
	assert.Equal(t, int64(4), size)

	ratio, err := f.EstimateCompressionRatio()
	require.NoError(t, err)
	assert.Equal(t, 1.0, ratio.Value)

	require.NoError(t, f.Close())
}

func TestFile_Closed(t *testing.T) {
	f, err := NewFile("inline", strings.NewReader("a\n"))
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	_, err = f.Cursor()
	require.ErrorIs(t, err, ErrClosed)
	_, err = f.EstimateLineCount()
	require.ErrorIs(t, err, ErrClosed)
	_, err = f.WriteTo(&bytes.Buffer{})
	require.ErrorIs(t, err, ErrClosed)
	err = f.Lines(func(int64, []byte, Progress) error { return nil })
	require.ErrorIs(t, err, ErrClosed)
}

func TestFile_EstimateOptions(t *testing.T) {
	f, err := NewFile("inline", strings.NewReader("a\n"), WithEstimateOptions(estimate.WithProbability(1)))
	require.NoError(t, err)

	_, err = f.EstimateLineLength()
	require.ErrorIs(t, err, estimate.ErrInvalidProbability)
}

func TestFile_ResourceLimits(t *testing.T) {
	f, err := NewFile("inline", strings.NewReader("a\n"), WithBufferSize(1024), WithResourceLimits(1024, 0))
	require.NoError(t, err)

	_, err = f.Cursor()
	require.Error(t, err)
}

func TestOpen_ThrottledIO(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "keys.log", []byte("1\n2\n3\n"))

	f, err := Open(path, WithResourceLimits(0, 1<<20))
	require.NoError(t, err)
	defer f.Close()

	m, err := Search(f, intKey, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), m.Offset)
	assert.Equal(t, "2", string(m.Line))
}

func TestFile_Metrics(t *testing.T) {
	fixture := testutil.NewRNG(5).SortedKeyedLines(500, 2, 10)
	metrics := &BasicMetricsCollector{}

	f, err := NewFile("keys.log", bytes.NewReader(fixture.Data),
		WithMetricsCollector(metrics),
		WithBufferSize(64),
	)
	require.NoError(t, err)

	_, err = Search(f, intKey, fixture.Keys[250])
	require.NoError(t, err)
	_, err = f.EstimateLineLength()
	require.NoError(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.SearchCount)
	assert.Equal(t, int64(0), stats.SearchErrors)
	assert.Positive(t, stats.SearchProbes)
	assert.Equal(t, int64(1), stats.EstimateCount)
	assert.Equal(t, int64(500), stats.EstimateSamples)
	assert.Positive(t, stats.RefillCount)
	assert.Positive(t, stats.RefillBytes)
}
