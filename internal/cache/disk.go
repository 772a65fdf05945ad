package cache

import (
	"container/list"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/seekline/internal/hash"
)

const (
	blockSuffix = ".blk"
	// checksumSize is the CRC32C footer appended to every block file.
	checksumSize = hash.FooterSize
)

// DiskCacheConfig holds configuration for the disk cache.
type DiskCacheConfig struct {
	// RootDir is the directory where cache files are stored.
	RootDir string
	// MaxSizeBytes is the maximum size of the cache in bytes.
	MaxSizeBytes int64
	// MaxConcurrentWrites limits background disk writes.
	// Defaults to 16 if <= 0.
	MaxConcurrentWrites int64
}

// DiskBlockCache implements BlockCache backed by the local filesystem.
// Each block lives in RootDir/_<escaped path>/<block>.blk; an in-memory LRU
// index tracks the files.
type DiskBlockCache struct {
	mu      sync.Mutex
	rootDir string
	maxSize int64
	size    int64

	writeSem *semaphore.Weighted
	wg       sync.WaitGroup

	items     map[CacheKey]*list.Element
	evictList *list.List

	hits   atomic.Int64
	misses atomic.Int64
}

type diskEntry struct {
	key  CacheKey
	size int64
	file string
}

// NewDiskBlockCache creates a disk-backed block cache and indexes the blocks
// already present under RootDir.
func NewDiskBlockCache(cfg DiskCacheConfig) (*DiskBlockCache, error) {
	if cfg.RootDir == "" {
		return nil, fmt.Errorf("cache: empty root dir")
	}
	if err := os.MkdirAll(cfg.RootDir, 0o755); err != nil {
		return nil, err
	}

	maxWrites := cfg.MaxConcurrentWrites
	if maxWrites <= 0 {
		maxWrites = 16
	}

	c := &DiskBlockCache{
		rootDir:   cfg.RootDir,
		maxSize:   cfg.MaxSizeBytes,
		writeSem:  semaphore.NewWeighted(maxWrites),
		items:     make(map[CacheKey]*list.Element),
		evictList: list.New(),
	}

	if err := c.scan(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.evict(0)
	c.mu.Unlock()

	return c, nil
}

func (c *DiskBlockCache) scan() error {
	return filepath.WalkDir(c.rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		if d.IsDir() {
			return nil
		}
		key, ok := c.keyOf(path)
		if !ok {
			// Leftover temp files of an interrupted write.
			if strings.HasPrefix(d.Name(), "tmp-blk-") {
				_ = os.Remove(path)
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // raced with removal
		}
		c.add(key, path, info.Size())
		return nil
	})
}

func (c *DiskBlockCache) fileOf(key CacheKey) string {
	return filepath.Join(c.rootDir, "_"+url.PathEscape(key.Path), strconv.FormatUint(key.Block, 10)+blockSuffix)
}

func (c *DiskBlockCache) keyOf(file string) (CacheKey, bool) {
	rel, err := filepath.Rel(c.rootDir, file)
	if err != nil {
		return CacheKey{}, false
	}

	dir, name := filepath.Split(rel)
	dir = strings.TrimSuffix(dir, string(filepath.Separator))
	if !strings.HasPrefix(dir, "_") || strings.ContainsRune(dir, filepath.Separator) || !strings.HasSuffix(name, blockSuffix) {
		return CacheKey{}, false
	}

	blk, err := strconv.ParseUint(strings.TrimSuffix(name, blockSuffix), 10, 64)
	if err != nil {
		return CacheKey{}, false
	}
	path, err := url.PathUnescape(dir[1:])
	if err != nil {
		return CacheKey{}, false
	}
	return CacheKey{Path: path, Block: blk}, true
}

func (c *DiskBlockCache) Get(ctx context.Context, key CacheKey) ([]byte, bool) {
	c.mu.Lock()
	el, ok := c.items[key]
	if ok {
		c.evictList.MoveToFront(el)
	}
	c.mu.Unlock()

	if !ok {
		c.misses.Add(1)
		return nil, false
	}

	data, err := os.ReadFile(el.Value.(*diskEntry).file)
	if err == nil {
		data, err = hash.Open(data)
	}
	if err != nil {
		// Missing files only drop the index entry; corrupt ones are deleted.
		c.mu.Lock()
		if cur, ok := c.items[key]; ok && cur == el {
			c.remove(el, !os.IsNotExist(err))
		}
		c.mu.Unlock()
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return data, true
}

// Set writes the block in the background. Blocks are immutable, so a key
// already present is only touched. When all writers are busy the block is
// dropped.
func (c *DiskBlockCache) Set(ctx context.Context, key CacheKey, b []byte) {
	size := int64(len(b)) + checksumSize
	if size > c.maxSize {
		return
	}

	c.mu.Lock()
	if el, ok := c.items[key]; ok {
		c.evictList.MoveToFront(el)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if !c.writeSem.TryAcquire(1) {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.writeSem.Release(1)

		file := c.fileOf(key)
		if err := writeAtomic(file, b); err != nil {
			return
		}

		c.mu.Lock()
		defer c.mu.Unlock()

		if _, ok := c.items[key]; ok {
			return
		}
		c.evict(size)
		c.add(key, file, size)
	}()
}

func writeAtomic(file string, b []byte) error {
	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "tmp-blk-*")
	if err != nil {
		return err
	}
	name := tmp.Name()

	if _, err := tmp.Write(hash.Seal(b)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Rename(name, file); err != nil {
		_ = os.Remove(name)
		return err
	}
	return nil
}

func (c *DiskBlockCache) Invalidate(predicate func(key CacheKey) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var toRemove []*list.Element
	for key, el := range c.items {
		if predicate(key) {
			toRemove = append(toRemove, el)
		}
	}

	for _, el := range toRemove {
		c.remove(el, true)
	}
}

// Wait blocks until all pending background writes are done.
func (c *DiskBlockCache) Wait() {
	c.wg.Wait()
}

// Close waits for all background writes to complete.
func (c *DiskBlockCache) Close() error {
	c.wg.Wait()
	return nil
}

func (c *DiskBlockCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Size returns the bytes currently indexed.
func (c *DiskBlockCache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Must hold c.mu for the helpers below.

func (c *DiskBlockCache) add(key CacheKey, file string, size int64) {
	c.items[key] = c.evictList.PushFront(&diskEntry{key: key, size: size, file: file})
	c.size += size
}

// evict removes the least recently used blocks until extra more bytes fit.
func (c *DiskBlockCache) evict(extra int64) {
	for c.size+extra > c.maxSize {
		el := c.evictList.Back()
		if el == nil {
			return
		}
		c.remove(el, true)
	}
}

func (c *DiskBlockCache) remove(el *list.Element, deleteFile bool) {
	ent := c.evictList.Remove(el).(*diskEntry)
	delete(c.items, ent.key)
	c.size -= ent.size
	if deleteFile {
		_ = os.Remove(ent.file)
	}
}
