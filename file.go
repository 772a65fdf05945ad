package seekline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/seekline/blobstore"
	"github.com/hupe1980/seekline/compress"
	"github.com/hupe1980/seekline/cursor"
	"github.com/hupe1980/seekline/estimate"
	"github.com/hupe1980/seekline/internal/mmap"
	"github.com/hupe1980/seekline/internal/position"
	"github.com/hupe1980/seekline/internal/resource"
)

// File is an open line-oriented file, local or remote, plain or compressed.
//
// A File owns a single stream. It is not safe for concurrent use, and the
// stream must not be used while a Cursor created from it is alive.
type File struct {
	ctx     context.Context
	name    string
	alg     compress.Algorithm
	size    int64
	stream  io.ReadSeeker
	closers []io.Closer
	opts    options
	logger  *Logger
	closed  bool
}

// Open opens the local file at path. The compression algorithm is taken from
// the file extension, or sniffed from the content when the extension is not
// recognized. Use WithAlgorithm to skip detection.
func Open(path string, optFns ...Option) (*File, error) {
	opts := applyOptions(optFns)
	ctx := context.Background()

	f, err := openLocal(ctx, path, opts)
	if err != nil {
		opts.logger.LogOpen(ctx, path, "", 0, err)
		return nil, err
	}
	opts.logger.LogOpen(ctx, path, f.alg.String(), f.size, nil)
	return f, nil
}

func openLocal(ctx context.Context, path string, opts options) (*File, error) {
	file, err := opts.fileSystem.Open(path)
	if err != nil {
		return nil, translateError(err)
	}

	alg, err := opts.resolveAlgorithm(path, file)
	if err != nil {
		_ = file.Close()
		return nil, translateError(err)
	}

	if !opts.mmap || alg != compress.None {
		return newFile(ctx, path, resource.Throttle(ctx, file, opts.resources), alg, []io.Closer{file}, opts)
	}

	// The mapping stays valid after the descriptor is closed.
	_ = file.Close()
	m, err := mmap.Open(path)
	if err != nil {
		return nil, translateError(err)
	}
	_ = m.Advise(mmap.Random)
	return newFile(ctx, path, m.Reader(), alg, []io.Closer{m}, opts)
}

// OpenBlob opens the object name in store. ctx bounds every read of the
// returned File, which closes the blob on Close.
//
// Reads are charged against WithResourceLimits, so a remote file can be
// throttled independently of the cursor window size.
func OpenBlob(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*File, error) {
	opts := applyOptions(optFns)

	blob, err := store.Open(ctx, name)
	if err != nil {
		err = translateError(err)
		opts.logger.LogOpen(ctx, name, "", 0, err)
		return nil, err
	}

	r := blobstore.NewReader(ctx, blob, opts.resources)
	alg, err := opts.resolveAlgorithm(name, r)
	if err != nil {
		_ = blob.Close()
		err = translateError(err)
		opts.logger.LogOpen(ctx, name, "", 0, err)
		return nil, err
	}

	f, err := newFile(ctx, name, r, alg, []io.Closer{blob}, opts)
	if err != nil {
		opts.logger.LogOpen(ctx, name, "", 0, err)
		return nil, err
	}
	opts.logger.LogOpen(ctx, name, f.alg.String(), f.size, nil)
	return f, nil
}

// NewFile wraps an already open stream. name is used for logging and for
// detecting the compression algorithm from its extension. The caller keeps
// ownership of rs.
func NewFile(name string, rs io.ReadSeeker, optFns ...Option) (*File, error) {
	opts := applyOptions(optFns)

	alg, err := opts.resolveAlgorithm(name, rs)
	if err != nil {
		return nil, translateError(err)
	}
	return newFile(context.Background(), name, rs, alg, nil, opts)
}

func newFile(ctx context.Context, name string, src io.ReadSeeker, alg compress.Algorithm, closers []io.Closer, opts options) (*File, error) {
	size, err := position.Size(src, true)
	if err != nil {
		_ = closeAll(closers)
		return nil, fmt.Errorf("size of %s: %w", name, translateError(err))
	}

	f := &File{
		ctx:     ctx,
		name:    name,
		alg:     alg,
		size:    size,
		stream:  src,
		closers: closers,
		opts:    opts,
		logger:  opts.logger.WithFile(name),
	}

	if alg != compress.None {
		r, err := compress.NewReader(src, alg)
		if err != nil {
			_ = closeAll(closers)
			return nil, err
		}
		f.stream = r
		f.closers = append([]io.Closer{r}, closers...)
	}

	return f, nil
}

func (o options) resolveAlgorithm(name string, rs io.ReadSeeker) (compress.Algorithm, error) {
	if !o.detect {
		return o.algorithm, nil
	}
	if alg := compress.FromExtension(name); alg != compress.None {
		return alg, nil
	}
	return compress.Sniff(rs)
}

// Name returns the path or object name the File was opened with.
func (f *File) Name() string { return f.name }

// Algorithm returns the compression algorithm of the File.
func (f *File) Algorithm() compress.Algorithm { return f.alg }

// Compressed reports whether the File is decoded on the fly.
func (f *File) Compressed() bool { return f.alg != compress.None }

// Size returns the size of the underlying bytes. For a compressed File this
// is the compressed size; see EstimateFileSize for the decoded size.
func (f *File) Size() int64 { return f.size }

// Stream returns the decoded stream.
func (f *File) Stream() io.ReadSeeker { return f.stream }

// Cursor returns a line cursor over the File. Random access needs the size of
// the decoded stream, so compressed files return ErrNotSeekable; copy them
// out with WriteTo first.
//
// The caller must close the cursor to release its window reservation.
func (f *File) Cursor() (*cursor.Reader, error) {
	if f.closed {
		return nil, ErrClosed
	}
	if f.Compressed() {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNotSeekable, f.name, f.alg)
	}

	r, err := cursor.New(f.stream, f.opts.cursorOptions()...)
	if err != nil {
		return nil, translateError(err)
	}
	return r, nil
}

// WriteTo copies the decoded content of the File to w. The stream is left at
// its end.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	if f.closed {
		return 0, ErrClosed
	}
	if _, err := f.stream.Seek(0, io.SeekStart); err != nil {
		return 0, translateError(err)
	}
	n, err := io.Copy(w, struct{ io.Reader }{f.stream})
	return n, translateError(err)
}

// EstimateCompressionRatio estimates compressed bytes per decoded byte.
func (f *File) EstimateCompressionRatio() (estimate.Estimate, error) {
	if f.closed {
		return estimate.Estimate{}, ErrClosed
	}

	start := time.Now()
	est, err := estimate.CompressionRatio(f.stream, f.opts.estimatorOptions()...)
	err = translateError(err)
	f.recordEstimate(EstimateCompressionRatio, est.Value, est.Samples, start, err)
	return est, err
}

// EstimateFileSize estimates the decoded size of the File.
func (f *File) EstimateFileSize() (int64, error) {
	if f.closed {
		return 0, ErrClosed
	}

	start := time.Now()
	size, err := estimate.FileSize(f.stream, f.opts.estimatorOptions()...)
	err = translateError(err)
	f.recordEstimate(EstimateFileSize, float64(size), 0, start, err)
	return size, err
}

// EstimateLineLength estimates the mean line length, terminator included.
func (f *File) EstimateLineLength() (estimate.Estimate, error) {
	if f.closed {
		return estimate.Estimate{}, ErrClosed
	}

	start := time.Now()
	est, err := estimate.LineLength(f.stream, f.opts.estimatorOptions()...)
	err = translateError(err)
	f.recordEstimate(EstimateLineLength, est.Value, est.Samples, start, err)
	return est, err
}

// EstimateLineCount estimates the number of lines in the File.
func (f *File) EstimateLineCount() (int64, error) {
	if f.closed {
		return 0, ErrClosed
	}

	start := time.Now()
	count, err := estimate.LineCount(f.stream, f.opts.estimatorOptions()...)
	err = translateError(err)
	f.recordEstimate(EstimateLineCount, float64(count), 0, start, err)
	return count, err
}

func (f *File) recordEstimate(kind string, value float64, samples int64, start time.Time, err error) {
	f.opts.metricsCollector.RecordEstimate(kind, samples, time.Since(start), err)
	f.logger.LogEstimate(f.ctx, kind, value, samples, err)
}

// Report collects the results of all estimators.
type Report struct {
	Name             string  `json:"name"`
	Algorithm        string  `json:"algorithm"`
	Size             int64   `json:"size"`
	CompressionRatio float64 `json:"compression_ratio"`
	FileSize         int64   `json:"file_size"`
	LineLength       float64 `json:"line_length"`
	LineCount        int64   `json:"line_count"`
	// Truncated reports a compressed stream that ended inside a frame.
	Truncated bool `json:"truncated,omitempty"`
}

// Estimate runs all estimators. CompressionRatio is +Inf for a compressed
// file that decodes to nothing.
func (f *File) Estimate() (Report, error) {
	report := Report{
		Name:      f.name,
		Algorithm: f.alg.String(),
		Size:      f.size,
	}

	ratio, err := f.EstimateCompressionRatio()
	if err != nil {
		return report, err
	}
	report.CompressionRatio = ratio.Value
	report.Truncated = ratio.Truncated

	if report.FileSize, err = f.EstimateFileSize(); err != nil {
		return report, err
	}

	length, err := f.EstimateLineLength()
	if err != nil {
		return report, err
	}
	report.LineLength = length.Value
	report.Truncated = report.Truncated || length.Truncated

	if report.LineCount, err = f.EstimateLineCount(); err != nil {
		return report, err
	}
	return report, nil
}

// Close releases the decoder and the underlying file or blob. It is
// idempotent.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	return closeAll(f.closers)
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
