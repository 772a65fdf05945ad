package blobstore

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hupe1980/seekline/internal/mmap"
)

// LocalStore serves the files below a directory through read-only memory
// mappings. It is the local stand-in for an object store.
type LocalStore struct {
	root string
}

// NewLocalStore returns a store rooted at dir.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{root: dir}
}

// Open maps the named file. Names are slash-separated and must stay below
// the root.
func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	rel := filepath.FromSlash(name)
	if !filepath.IsLocal(rel) {
		return nil, fmt.Errorf("blobstore: %q escapes %s: %w", name, s.root, ErrNotFound)
	}

	m, err := mmap.Open(filepath.Join(s.root, rel))
	if err != nil {
		return nil, err
	}
	// Blobs are read by bisection first; a sequential pass re-advises.
	_ = m.Advise(mmap.Random)
	return &localBlob{m: m}, nil
}

type localBlob struct {
	m *mmap.Mapping
}

func (b *localBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	return b.m.ReadAt(p, off)
}

func (b *localBlob) Close() error { return b.m.Close() }
func (b *localBlob) Size() int64  { return b.m.Size() }

// Bytes implements Mappable.
func (b *localBlob) Bytes() ([]byte, error) {
	if data := b.m.Bytes(); data != nil || b.m.Size() == 0 {
		return data, nil
	}
	return nil, mmap.ErrClosed
}
