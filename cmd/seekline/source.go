package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/seekline"
	"github.com/hupe1980/seekline/blobstore"
	miniostore "github.com/hupe1980/seekline/blobstore/minio"
	s3store "github.com/hupe1980/seekline/blobstore/s3"
	"github.com/hupe1980/seekline/compress"
	"github.com/hupe1980/seekline/internal/cache"
)

// location is a parsed source argument.
type location struct {
	scheme string // "", "s3" or "minio"
	bucket string
	key    string
	path   string
}

func parseLocation(arg string) (location, error) {
	scheme, rest, ok := strings.Cut(arg, "://")
	if !ok {
		return location{path: arg}, nil
	}

	switch scheme {
	case "s3", "minio":
	default:
		return location{}, fmt.Errorf("unsupported source scheme %q", scheme)
	}

	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return location{}, fmt.Errorf("source %q: expected %s://bucket/key", arg, scheme)
	}
	return location{scheme: scheme, bucket: bucket, key: key}, nil
}

func (l location) remote() bool { return l.scheme != "" }

// source is an opened File plus everything that has to be released with it.
type source struct {
	*seekline.File
	cleanup []func() error
}

// Close closes the File and releases caches and temporary copies in reverse
// order of creation.
func (s *source) Close() error {
	errs := []error{s.File.Close()}
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		errs = append(errs, s.cleanup[i]())
	}
	return errors.Join(errs...)
}

// openSource opens arg. With seekable set the result supports Cursor:
// compressed files are decoded into a temporary file, and remote files are
// spooled first when -spool is given.
func openSource(ctx context.Context, arg string, cfg *config, opts []seekline.Option, seekable bool) (*source, error) {
	loc, err := parseLocation(arg)
	if err != nil {
		return nil, err
	}

	src := &source{}
	if err := src.open(ctx, loc, cfg, opts, seekable); err != nil {
		_ = src.closeCleanup()
		return nil, err
	}

	if seekable && src.Compressed() {
		if err := src.decode(cfg, opts); err != nil {
			_ = src.Close()
			return nil, err
		}
	}
	return src, nil
}

func (s *source) open(ctx context.Context, loc location, cfg *config, opts []seekline.Option, seekable bool) error {
	if !loc.remote() {
		f, err := seekline.Open(loc.path, opts...)
		if err != nil {
			return err
		}
		s.File = f
		return nil
	}

	store, err := newStore(ctx, loc, cfg)
	if err != nil {
		return err
	}

	if seekable && cfg.spool {
		name, err := s.spool(ctx, store, loc, cfg)
		if err != nil {
			return err
		}
		f, err := seekline.Open(name, opts...)
		if err != nil {
			return err
		}
		s.File = f
		return nil
	}

	var bs blobstore.BlobStore = store
	if cfg.cacheSize > 0 {
		bc, err := newBlockCache(cfg)
		if err != nil {
			return err
		}
		s.cleanup = append(s.cleanup, bc.Close)
		bs = blobstore.NewCachingStore(store, bc, cfg.blockSize)
	}

	f, err := seekline.OpenBlob(ctx, bs, loc.key, opts...)
	if err != nil {
		return err
	}
	s.File = f
	return nil
}

func (s *source) closeCleanup() error {
	var errs []error
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		errs = append(errs, s.cleanup[i]())
	}
	s.cleanup = nil
	return errors.Join(errs...)
}

// spool downloads the object into a temporary file and returns its path.
func (s *source) spool(ctx context.Context, store blobstore.BlobStore, loc location, cfg *config) (string, error) {
	// The copy keeps the object's base name so its extension still selects
	// the decoder.
	tmp, err := os.CreateTemp(cfg.tempDir, "seekline-*-"+path.Base(loc.key))
	if err != nil {
		return "", err
	}
	s.cleanup = append(s.cleanup, func() error { return os.Remove(tmp.Name()) })

	if _, err := blobstore.Spool(ctx, store, loc.key, tmp); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("spool %s: %w", loc.key, err)
	}
	return tmp.Name(), tmp.Close()
}

// decode replaces a compressed File with a decoded temporary copy.
func (s *source) decode(cfg *config, opts []seekline.Option) error {
	tmp, err := os.CreateTemp(cfg.tempDir, "seekline-decoded-*")
	if err != nil {
		return err
	}
	s.cleanup = append(s.cleanup, func() error { return os.Remove(tmp.Name()) })

	_, err = s.File.WriteTo(tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", s.Name(), err)
	}

	if err := s.File.Close(); err != nil {
		return err
	}
	f, err := seekline.Open(tmp.Name(), append(opts, seekline.WithAlgorithm(compress.None))...)
	if err != nil {
		return err
	}
	s.File = f
	return nil
}

func newStore(ctx context.Context, loc location, cfg *config) (blobstore.BlobStore, error) {
	switch loc.scheme {
	case "s3":
		var optFns []s3store.Option
		if cfg.s3Region != "" {
			optFns = append(optFns, s3store.WithRegion(cfg.s3Region))
		}
		if cfg.s3Endpoint != "" {
			optFns = append(optFns, s3store.WithEndpoint(cfg.s3Endpoint))
		}
		return s3store.New(ctx, loc.bucket, optFns...)
	case "minio":
		client, err := newMinioClient()
		if err != nil {
			return nil, err
		}
		return miniostore.NewStore(client, loc.bucket, ""), nil
	default:
		return nil, fmt.Errorf("unsupported source scheme %q", loc.scheme)
	}
}

func newMinioClient() (*minio.Client, error) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:9000"
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), ""),
		Secure: os.Getenv("MINIO_SECURE") == "true",
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return client, nil
}

// newBlockCache builds the in-memory block cache, backed by a persistent
// disk tier when -cache-dir is set.
func newBlockCache(cfg *config) (cache.BlockCache, error) {
	mem := cache.NewShardedLRUBlockCache(cfg.cacheSize, nil)
	if cfg.cacheDir == "" {
		return mem, nil
	}

	disk, err := cache.NewDiskBlockCache(cache.DiskCacheConfig{
		RootDir:      cfg.cacheDir,
		MaxSizeBytes: cfg.cacheDiskSize,
	})
	if err != nil {
		_ = mem.Close()
		return nil, err
	}
	return cache.NewTiered(mem, disk), nil
}
