package blobstore

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/hupe1980/seekline/internal/cache"
	"golang.org/x/sync/errgroup"
)

// DefaultBlockSize is the cache block size used when none is given.
const DefaultBlockSize = 64 << 10

// fetchConcurrency bounds parallel backend requests of one ReadAt.
const fetchConcurrency = 16

// CachingStore wraps a BlobStore and adds block-level caching.
//
// Binary search over a remote object probes the same few blocks near the
// bracket again and again; caching them avoids one request per probe.
type CachingStore struct {
	inner     BlobStore
	cache     cache.BlockCache
	blockSize int64
}

// NewCachingStore creates a new CachingStore.
// blockSize defaults to DefaultBlockSize if <= 0.
func NewCachingStore(inner BlobStore, c cache.BlockCache, blockSize int64) *CachingStore {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &CachingStore{
		inner:     inner,
		cache:     c,
		blockSize: blockSize,
	}
}

// Open opens the inner blob and wraps it with the cache.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &CachingBlob{
		inner:     b,
		cache:     s.cache,
		name:      name,
		blockSize: s.blockSize,
		fetched:   roaring64.New(),
	}, nil
}

// Invalidate drops all cached blocks of name.
func (s *CachingStore) Invalidate(name string) {
	s.cache.Invalidate(func(key cache.CacheKey) bool {
		return key.Path == name
	})
}

// CachingBlob wraps a Blob and uses the block cache for reads.
type CachingBlob struct {
	inner     Blob
	cache     cache.BlockCache
	name      string
	blockSize int64

	mu      sync.Mutex
	fetched *roaring64.Bitmap
	loads   uint64
}

func (b *CachingBlob) Close() error {
	return b.inner.Close()
}

func (b *CachingBlob) Size() int64 {
	return b.inner.Size()
}

// FetchStats returns the number of distinct blocks loaded from the backend
// and the number of backend loads in total. A block counted more than once
// was evicted and fetched again.
func (b *CachingBlob) FetchStats() (distinct uint64, loads uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fetched.GetCardinality(), b.loads
}

func (b *CachingBlob) key(blk int64) cache.CacheKey {
	return cache.CacheKey{Path: b.name, Block: uint64(blk)}
}

func (b *CachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if off >= b.Size() {
		return 0, io.EOF
	}

	startBlock := off / b.blockSize
	endBlock := (off + int64(len(p)) - 1) / b.blockSize

	if err := b.fillCache(ctx, startBlock, endBlock); err != nil {
		return 0, err
	}

	total := 0
	for blk := startBlock; blk <= endBlock; blk++ {
		blkStart := blk * b.blockSize

		data, err := b.block(ctx, blk)
		if err != nil {
			return total, err
		}

		// Intersection of [blkStart, blkStart+len(data)) and [off, off+len(p)).
		from := max(blkStart, off)
		to := min(blkStart+int64(len(data)), off+int64(len(p)))
		if to <= from {
			break
		}
		total += copy(p[from-off:to-off], data[from-blkStart:])
	}

	if total < len(p) {
		return total, io.EOF
	}
	return total, nil
}

// fillCache loads the missing blocks of [startBlock, endBlock], fetching each
// contiguous run of missing blocks with a single backend request.
func (b *CachingBlob) fillCache(ctx context.Context, startBlock, endBlock int64) error {
	type run struct{ start, count int64 }
	var missing []run

	for blk := startBlock; blk <= endBlock; blk++ {
		if _, ok := b.cache.Get(ctx, b.key(blk)); ok {
			continue
		}
		if n := len(missing); n > 0 && missing[n-1].start+missing[n-1].count == blk {
			missing[n-1].count++
		} else {
			missing = append(missing, run{start: blk, count: 1})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	size := b.Size()
	for _, r := range missing {
		g.Go(func() error {
			byteStart := r.start * b.blockSize
			if byteStart >= size {
				return nil
			}
			byteSize := min(r.count*b.blockSize, size-byteStart)

			buf := make([]byte, byteSize)
			n, err := b.inner.ReadAt(gctx, buf, byteStart)
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}

			for i := int64(0); i < r.count; i++ {
				lo := i * b.blockSize
				if lo >= int64(n) {
					break
				}
				hi := min(lo+b.blockSize, int64(n))
				// Copy so a cached block does not pin the whole run buffer.
				b.store(ctx, r.start+i, append([]byte(nil), buf[lo:hi]...))
			}
			return nil
		})
	}
	return g.Wait()
}

// block returns a cached block, loading it if it was evicted since
// fillCache ran.
func (b *CachingBlob) block(ctx context.Context, blk int64) ([]byte, error) {
	if data, ok := b.cache.Get(ctx, b.key(blk)); ok {
		return data, nil
	}

	buf := make([]byte, b.blockSize)
	n, err := b.inner.ReadAt(ctx, buf, blk*b.blockSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	data := buf[:n]
	if n > 0 {
		b.store(ctx, blk, data)
	}
	return data, nil
}

func (b *CachingBlob) store(ctx context.Context, blk int64, data []byte) {
	b.mu.Lock()
	b.fetched.Add(uint64(blk))
	b.loads++
	b.mu.Unlock()

	b.cache.Set(ctx, b.key(blk), data)
}

// ReadRange streams a range through the block cache.
func (b *CachingBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	return io.NopCloser(&sectionReader{blob: b, ctx: ctx, off: off, limit: off + length}), nil
}

// sectionReader wraps a Blob to implement io.Reader with context.
type sectionReader struct {
	blob  Blob
	ctx   context.Context
	off   int64
	limit int64
}

func (r *sectionReader) Read(p []byte) (n int, err error) {
	if r.off >= r.limit {
		return 0, io.EOF
	}
	if remaining := r.limit - r.off; int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err = r.blob.ReadAt(r.ctx, p, r.off)
	r.off += int64(n)
	if errors.Is(err, io.EOF) && n > 0 {
		err = nil
	}
	return n, err
}
