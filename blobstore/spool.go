package blobstore

import (
	"context"
	"errors"
	"io"
)

// DefaultSpoolChunkSize is the request size of a ranged spool copy.
const DefaultSpoolChunkSize = 8 << 20

// Downloader is an optional interface for stores with a native whole-object
// transfer, usually parallel ranged requests.
type Downloader interface {
	Download(ctx context.Context, name string, w io.WriterAt) (int64, error)
}

// Spool copies blob name from store into w and returns the number of bytes
// written.
func Spool(ctx context.Context, store BlobStore, name string, w io.WriterAt) (int64, error) {
	if d, ok := store.(Downloader); ok {
		return d.Download(ctx, name, w)
	}

	blob, err := store.Open(ctx, name)
	if err != nil {
		return 0, err
	}
	defer func() { _ = blob.Close() }()

	return copyBlob(ctx, blob, w, DefaultSpoolChunkSize)
}

func copyBlob(ctx context.Context, blob Blob, w io.WriterAt, chunk int64) (int64, error) {
	size := blob.Size()
	buf := make([]byte, min(chunk, max(size, 1)))

	var written int64
	for written < size {
		p := buf[:min(int64(len(buf)), size-written)]
		n, err := blob.ReadAt(ctx, p, written)
		if n > 0 {
			if _, werr := w.WriteAt(p[:n], written); werr != nil {
				return written, werr
			}
			written += int64(n)
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return written, err
		}
		if n == 0 {
			return written, io.ErrUnexpectedEOF
		}
	}
	return written, nil
}
