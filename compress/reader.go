package compress

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/seekline/internal/position"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

type decoder interface {
	io.Reader
	Reset(r io.Reader) error
	Close() error
}

type zstdDecoder struct{ *zstd.Decoder }

func (d zstdDecoder) Close() error {
	d.Decoder.Close()
	return nil
}

type lz4Decoder struct{ *lz4.Reader }

func (d lz4Decoder) Reset(r io.Reader) error {
	d.Reader.Reset(r)
	return nil
}

func (d lz4Decoder) Close() error { return nil }

func newDecoder(alg Algorithm, r io.Reader) (decoder, error) {
	switch alg {
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr, nil
	case Zstd:
		// A single decoder goroutine keeps stream decoding synchronous.
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		return zstdDecoder{zr}, nil
	case LZ4:
		return lz4Decoder{lz4.NewReader(r)}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, alg)
	}
}

// meter buffers the transport and counts the bytes handed to the decoder.
// Implementing io.ByteReader keeps flate from adding a read-ahead buffer of
// its own, so the count matches what was decoded.
type meter struct {
	br *bufio.Reader
	n  int64
}

func newMeter(r io.Reader) *meter {
	return &meter{br: bufio.NewReader(r)}
}

func (m *meter) Read(p []byte) (int, error) {
	n, err := m.br.Read(p)
	m.n += int64(n)
	return n, err
}

func (m *meter) ReadByte() (byte, error) {
	b, err := m.br.ReadByte()
	if err == nil {
		m.n++
	}
	return b, err
}

func (m *meter) reset(r io.Reader) {
	m.br.Reset(r)
	m.n = 0
}

// Reader decodes a compressed transport. It implements io.ReadSeeker over the
// decoded bytes with the restrictions described in the package docs.
type Reader struct {
	transport io.ReadSeeker
	alg       Algorithm
	base      int64
	size      int64

	meter *meter
	dec   decoder
	stale bool
	eof   bool

	pos    int64
	closed bool
}

// NewReader decodes transport with alg. The compressed stream starts at the
// current offset of transport and extends to its end.
func NewReader(transport io.ReadSeeker, alg Algorithm) (*Reader, error) {
	switch alg {
	case Gzip, Zstd, LZ4:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, alg)
	}

	base, err := position.Tell(transport)
	if err != nil {
		return nil, fmt.Errorf("compress: transport offset: %w", err)
	}
	size, err := position.Size(transport, true)
	if err != nil {
		return nil, fmt.Errorf("compress: transport size: %w", err)
	}

	return &Reader{
		transport: transport,
		alg:       alg,
		base:      base,
		size:      size - base,
		meter:     newMeter(transport),
		stale:     true,
	}, nil
}

// Algorithm returns the compression format being decoded.
func (r *Reader) Algorithm() Algorithm { return r.alg }

// Transport returns the underlying compressed stream.
func (r *Reader) Transport() io.ReadSeeker { return r.transport }

// TransportOffset returns the number of compressed bytes consumed since the
// decoder last started from the beginning of the stream.
func (r *Reader) TransportOffset() int64 { return r.meter.n }

// TransportSize returns the size of the compressed stream.
func (r *Reader) TransportSize() int64 { return r.size }

// Read implements io.Reader. A truncated stream yields io.ErrUnexpectedEOF.
func (r *Reader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, ErrClosed
	}
	if err := r.open(); err != nil {
		return 0, err
	}
	if r.eof {
		return 0, io.EOF
	}

	n, err := r.dec.Read(p)
	r.pos += int64(n)
	if errors.Is(err, io.EOF) {
		r.eof = true
	}
	return n, err
}

// Seek implements io.Seeker for io.SeekStart and io.SeekCurrent. Seeking past
// the decoded end stops at the end.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	if r.closed {
		return r.pos, ErrClosed
	}

	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = r.pos + offset
	case io.SeekEnd:
		return r.pos, fmt.Errorf("%w: relative to end of %s stream", ErrUnsupportedSeek, r.alg)
	default:
		return r.pos, fmt.Errorf("%w: whence %d", ErrUnsupportedSeek, whence)
	}
	if target < 0 {
		return r.pos, fmt.Errorf("%w: %d", ErrInvalidOffset, target)
	}

	if target < r.pos {
		if err := r.rewind(); err != nil {
			return r.pos, err
		}
	}

	if target > r.pos {
		if _, err := io.CopyN(io.Discard, r, target-r.pos); err != nil && !errors.Is(err, io.EOF) {
			return r.pos, err
		}
	}

	return r.pos, nil
}

// Close releases the decoder. The transport is not closed.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.dec != nil {
		return r.dec.Close()
	}
	return nil
}

func (r *Reader) rewind() error {
	if _, err := r.transport.Seek(r.base, io.SeekStart); err != nil {
		return err
	}
	r.meter.reset(r.transport)
	r.pos = 0
	r.stale = true
	r.eof = false
	return nil
}

func (r *Reader) open() error {
	if !r.stale {
		return nil
	}

	var err error
	if r.dec == nil {
		r.dec, err = newDecoder(r.alg, r.meter)
	} else {
		err = r.dec.Reset(r.meter)
	}
	if err != nil {
		// An empty gzip transport fails while reading the header.
		if errors.Is(err, io.EOF) {
			r.stale = false
			r.eof = true
			return nil
		}
		return err
	}

	r.stale = false
	return nil
}
