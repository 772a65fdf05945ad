package stats

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/seekline/internal/position"
)

// ErrUnknownSize is returned when the size of the underlying stream cannot be
// determined.
var ErrUnknownSize = errors.New("stats: unknown stream size")

// Transport is implemented by decoding streams that can report how much of
// their underlying transport they consumed.
type Transport interface {
	// TransportOffset returns the number of transport bytes consumed so far.
	TransportOffset() int64
	// TransportSize returns the size of the transport in bytes.
	TransportSize() int64
}

// TransportOf returns the decoding stream behind r, looking through wrappers
// that expose an Unwrap method.
func TransportOf(r io.Reader) (Transport, bool) {
	for r != nil {
		if t, ok := r.(Transport); ok {
			return t, true
		}
		u, ok := r.(interface{ Unwrap() io.ReadSeeker })
		if !ok {
			return nil, false
		}
		r = u.Unwrap()
	}
	return nil, false
}

// CountingReader wraps a stream and updates Stream and LineLength statistics
// with every byte it hands to the caller. Bytes buffered ahead of the caller
// are not counted until they are returned.
type CountingReader struct {
	base      io.Reader
	transport Transport
	br        *bufio.Reader
	src       meter

	stream Stream
	acc    Accumulator
	eof    bool
}

// NewCountingReader wraps r. The underlying size comes from the transport of
// a decoding stream, or from seeking r otherwise; r's offset is preserved.
func NewCountingReader(r io.Reader) (*CountingReader, error) {
	c := &CountingReader{base: r}

	if t, ok := TransportOf(r); ok {
		c.transport = t
		c.stream.Compressed = true
		c.stream.UnderlyingSize = t.TransportSize()
	} else if s, ok := r.(io.Seeker); ok {
		size, err := position.Size(s, true)
		if err != nil {
			return nil, fmt.Errorf("stats: stream size: %w", err)
		}
		c.stream.UnderlyingSize = size
	} else {
		return nil, ErrUnknownSize
	}

	c.src = meter{r: r, transport: c.transport}
	c.br = bufio.NewReader(&c.src)
	return c, nil
}

// Read implements io.Reader.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.br.Read(p)
	c.charge(p[:n], err)
	return n, err
}

// ReadLine returns the next line including its terminator. The last line may
// lack a terminator; io.EOF is returned once the stream is drained.
func (c *CountingReader) ReadLine() ([]byte, error) {
	line, err := c.br.ReadBytes('\n')
	c.charge(line, err)
	if errors.Is(err, io.EOF) && len(line) > 0 {
		return line, nil
	}
	return line, err
}

// Settle moves the wrapped stream back to the first byte not yet returned to
// the caller, discarding the read-ahead buffer. It is a no-op when nothing
// is buffered.
func (c *CountingReader) Settle() error {
	buffered := c.br.Buffered()
	if buffered == 0 {
		return nil
	}
	s, ok := c.base.(io.Seeker)
	if !ok {
		return fmt.Errorf("stats: settle: %w", errors.ErrUnsupported)
	}
	if _, err := s.Seek(-int64(buffered), io.SeekCurrent); err != nil {
		return fmt.Errorf("stats: settle: %w", err)
	}
	c.src.rewind(int64(buffered))
	c.br.Reset(&c.src)
	c.eof = false
	return nil
}

// Stream returns a snapshot of the stream statistics.
func (c *CountingReader) Stream() Stream { return c.stream }

// Lines returns a snapshot of the line statistics.
func (c *CountingReader) Lines() LineLength { return c.acc.Lines }

// EstimatedSize returns the running estimate of the decoded size.
func (c *CountingReader) EstimatedSize() int64 { return c.stream.EstimatedSize() }

// EstimatedLineCount returns the running estimate of the line count.
func (c *CountingReader) EstimatedLineCount() int64 {
	return EstimatedLineCount(c.stream, c.acc.Lines)
}

// Unwrap returns the wrapped stream when it is seekable.
func (c *CountingReader) Unwrap() io.ReadSeeker {
	rs, _ := c.base.(io.ReadSeeker)
	return rs
}

// charge counts b as handed to the caller. Transport bytes are attributed in
// proportion to the decoded bytes pulled so far.
func (c *CountingReader) charge(b []byte, err error) {
	c.stream.DecompressedRead += int64(len(b))
	c.stream.CompressedRead = c.src.transportFor(c.stream.DecompressedRead)
	c.acc.Observe(b)

	if errors.Is(err, io.EOF) && !c.eof {
		c.eof = true
		c.acc.Finish()
	}
}

// meter is the bufio source; it tracks how many decoded and transport bytes
// were pulled from the wrapped stream.
type meter struct {
	r         io.Reader
	transport Transport

	decoded  int64
	consumed int64
}

func (m *meter) Read(p []byte) (int, error) {
	var before int64
	if m.transport != nil {
		before = m.transport.TransportOffset()
	}

	n, err := m.r.Read(p)
	m.decoded += int64(n)

	if m.transport != nil {
		m.consumed += m.transport.TransportOffset() - before
	} else {
		m.consumed += int64(n)
	}
	return n, err
}

// transportFor returns the transport bytes attributed to the first decoded
// bytes pulled so far.
func (m *meter) transportFor(decoded int64) int64 {
	if m.transport == nil || m.decoded == 0 {
		return decoded
	}
	if decoded >= m.decoded {
		return m.consumed
	}
	return int64(float64(m.consumed) * float64(decoded) / float64(m.decoded))
}

// rewind forgets n decoded bytes that were pulled but never returned.
func (m *meter) rewind(n int64) {
	m.consumed = m.transportFor(m.decoded - n)
	m.decoded -= n
}
