package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/hupe1980/seekline/internal/position"
)

var (
	// ErrUnknownAlgorithm is returned for an algorithm name or value that is
	// not supported.
	ErrUnknownAlgorithm = errors.New("compress: unknown algorithm")
	// ErrUnsupportedSeek is returned for seeks relative to the decoded end.
	ErrUnsupportedSeek = errors.New("compress: unsupported seek")
	// ErrInvalidOffset is returned for seeks to a negative decoded offset.
	ErrInvalidOffset = errors.New("compress: invalid offset")
	// ErrClosed is returned when reading from a closed Reader.
	ErrClosed = errors.New("compress: reader closed")
)

// Algorithm identifies a compression format.
type Algorithm int

const (
	// None means the stream is not compressed.
	None Algorithm = iota
	// Gzip is RFC 1952, including concatenated members.
	Gzip
	// Zstd is the Zstandard frame format.
	Zstd
	// LZ4 is the LZ4 frame format.
	LZ4
)

func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

// ParseAlgorithm maps a name as returned by String back to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(name) {
	case "", "none", "raw":
		return None, nil
	case "gzip", "gz":
		return Gzip, nil
	case "zstd", "zst":
		return Zstd, nil
	case "lz4":
		return LZ4, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
}

// FromExtension picks an algorithm from a file name's extension.
func FromExtension(path string) Algorithm {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	case ".lz4":
		return LZ4
	default:
		return None
	}
}

var magics = []struct {
	alg   Algorithm
	magic []byte
}{
	{Gzip, []byte{0x1f, 0x8b}},
	{Zstd, []byte{0x28, 0xb5, 0x2f, 0xfd}},
	{LZ4, []byte{0x04, 0x22, 0x4d, 0x18}},
}

// HeaderSize is the number of leading bytes Detect needs.
const HeaderSize = 4

// Detect identifies an algorithm from the first bytes of a stream.
func Detect(header []byte) Algorithm {
	for _, m := range magics {
		if bytes.HasPrefix(header, m.magic) {
			return m.alg
		}
	}
	return None
}

// Sniff reads the header of rs and detects its algorithm. The offset of rs is
// restored.
func Sniff(rs io.ReadSeeker) (Algorithm, error) {
	var alg Algorithm
	err := position.Scope(rs, true, func() error {
		header := make([]byte, HeaderSize)
		n, err := io.ReadFull(rs, header)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return err
		}
		alg = Detect(header[:n])
		return nil
	})
	return alg, err
}
