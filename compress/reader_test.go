package compress

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var algorithms = []Algorithm{Gzip, Zstd, LZ4}

func sample(lines int) []byte {
	var sb strings.Builder
	for i := 0; i < lines; i++ {
		fmt.Fprintf(&sb, "%08d the quick brown fox jumps over the lazy dog\n", i)
	}
	return []byte(sb.String())
}

func TestReader_RoundTrip(t *testing.T) {
	data := sample(5000)

	for _, alg := range algorithms {
		t.Run(alg.String(), func(t *testing.T) {
			enc, err := Encode(data, alg)
			require.NoError(t, err)
			assert.Less(t, len(enc), len(data))

			r, err := NewReader(bytes.NewReader(enc), alg)
			require.NoError(t, err)
			defer r.Close()

			assert.Equal(t, alg, r.Algorithm())
			assert.Equal(t, int64(len(enc)), r.TransportSize())
			assert.Equal(t, int64(0), r.TransportOffset())

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, data, got)

			assert.Greater(t, r.TransportOffset(), int64(0))
			assert.LessOrEqual(t, r.TransportOffset(), int64(len(enc)))
		})
	}
}

func TestReader_Seek(t *testing.T) {
	data := sample(2000)

	for _, alg := range algorithms {
		t.Run(alg.String(), func(t *testing.T) {
			enc, err := Encode(data, alg)
			require.NoError(t, err)

			r, err := NewReader(bytes.NewReader(enc), alg)
			require.NoError(t, err)
			defer r.Close()

			buf := make([]byte, 64)
			_, err = io.ReadFull(r, buf)
			require.NoError(t, err)

			pos, err := r.Seek(0, io.SeekCurrent)
			require.NoError(t, err)
			assert.Equal(t, int64(64), pos)

			pos, err = r.Seek(1000, io.SeekStart)
			require.NoError(t, err)
			assert.Equal(t, int64(1000), pos)
			_, err = io.ReadFull(r, buf)
			require.NoError(t, err)
			assert.Equal(t, data[1000:1064], buf)

			pos, err = r.Seek(-500, io.SeekCurrent)
			require.NoError(t, err)
			assert.Equal(t, int64(564), pos)
			_, err = io.ReadFull(r, buf)
			require.NoError(t, err)
			assert.Equal(t, data[564:628], buf)

			pos, err = r.Seek(int64(len(data))+100, io.SeekStart)
			require.NoError(t, err)
			assert.Equal(t, int64(len(data)), pos)

			_, err = r.Seek(0, io.SeekEnd)
			require.ErrorIs(t, err, ErrUnsupportedSeek)

			_, err = r.Seek(-1, io.SeekStart)
			require.ErrorIs(t, err, ErrInvalidOffset)

			pos, err = r.Seek(0, io.SeekStart)
			require.NoError(t, err)
			assert.Equal(t, int64(0), pos)
			assert.Equal(t, int64(0), r.TransportOffset())

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, data, got)
		})
	}
}

func TestReader_TransportOffsetFollowsDecoder(t *testing.T) {
	data := sample(5000)

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.NoCompression)
	require.NoError(t, err)
	_, err = zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	enc := buf.Bytes()

	r, err := NewReader(bytes.NewReader(enc), Gzip)
	require.NoError(t, err)
	defer r.Close()

	// The first read decodes one window of a stored block: 10 header bytes,
	// 5 block header bytes and 32 KiB of payload.
	one := make([]byte, 1)
	_, err = r.Read(one)
	require.NoError(t, err)
	assert.Greater(t, r.TransportOffset(), int64(0))
	assert.LessOrEqual(t, r.TransportOffset(), int64(10+5+32<<10))

	_, err = io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, int64(len(enc)), r.TransportOffset())

	_, err = r.Seek(0, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(0), r.TransportOffset())
	_, err = r.Read(one)
	require.NoError(t, err)
	assert.Equal(t, data[:1], one)
	assert.LessOrEqual(t, r.TransportOffset(), int64(10+5+32<<10))
}

func TestReader_TransportBase(t *testing.T) {
	data := sample(100)
	enc, err := Encode(data, Gzip)
	require.NoError(t, err)

	prefix := []byte("HEADER")
	transport := bytes.NewReader(append(append([]byte{}, prefix...), enc...))
	_, err = transport.Seek(int64(len(prefix)), io.SeekStart)
	require.NoError(t, err)

	r, err := NewReader(transport, Gzip)
	require.NoError(t, err)
	assert.Equal(t, int64(len(enc)), r.TransportSize())
	assert.Same(t, transport, r.Transport())

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = r.Seek(0, io.SeekStart)
	require.NoError(t, err)
	got, err = io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestReader_Truncated(t *testing.T) {
	enc, err := Encode(sample(5000), Gzip)
	require.NoError(t, err)

	r, err := NewReader(bytes.NewReader(enc[:len(enc)/2]), Gzip)
	require.NoError(t, err)

	_, err = io.ReadAll(r)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReader_EmptyTransport(t *testing.T) {
	r, err := NewReader(bytes.NewReader(nil), Gzip)
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReader_Closed(t *testing.T) {
	enc, err := Encode([]byte("x\n"), Zstd)
	require.NoError(t, err)

	r, err := NewReader(bytes.NewReader(enc), Zstd)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	_, err = r.Read(make([]byte, 1))
	require.ErrorIs(t, err, ErrClosed)
}

func TestNewReader_UnknownAlgorithm(t *testing.T) {
	for _, alg := range []Algorithm{None, Algorithm(42)} {
		_, err := NewReader(bytes.NewReader(nil), alg)
		require.ErrorIs(t, err, ErrUnknownAlgorithm)
	}
	_, err := NewWriter(io.Discard, None)
	require.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestDetect(t *testing.T) {
	for _, alg := range algorithms {
		enc, err := Encode([]byte("hello\n"), alg)
		require.NoError(t, err)
		assert.Equal(t, alg, Detect(enc), alg.String())

		rs := bytes.NewReader(enc)
		got, err := Sniff(rs)
		require.NoError(t, err)
		assert.Equal(t, alg, got)
		assert.Equal(t, int64(len(enc)), int64(rs.Len()), "sniff restores the offset")
	}

	assert.Equal(t, None, Detect([]byte("plain text")))
	assert.Equal(t, None, Detect(nil))

	got, err := Sniff(bytes.NewReader([]byte{0x1f}))
	require.NoError(t, err)
	assert.Equal(t, None, got)
}

func TestFromExtension(t *testing.T) {
	tests := map[string]Algorithm{
		"data.txt":        None,
		"data.gz":         Gzip,
		"DATA.GZ":         Gzip,
		"dir.d/log.zst":   Zstd,
		"archive.tar.lz4": LZ4,
		"noext":           None,
	}
	for path, want := range tests {
		assert.Equal(t, want, FromExtension(path), path)
	}
}

func TestParseAlgorithm(t *testing.T) {
	for _, alg := range []Algorithm{None, Gzip, Zstd, LZ4} {
		got, err := ParseAlgorithm(alg.String())
		require.NoError(t, err)
		assert.Equal(t, alg, got)
	}

	_, err := ParseAlgorithm("brotli")
	require.ErrorIs(t, err, ErrUnknownAlgorithm)
	assert.Equal(t, "Algorithm(9)", Algorithm(9).String())
}
