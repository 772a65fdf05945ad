package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/seekline/blobstore"
)

// Store implements blobstore.BlobStore for S3.
type Store struct {
	client Client
	bucket string
	opts   Options
}

var (
	_ blobstore.BlobStore  = (*Store)(nil)
	_ blobstore.Downloader = (*Store)(nil)
)

// New creates a Store from the default AWS config chain.
func New(ctx context.Context, bucket string, optFns ...Option) (*Store, error) {
	opts := applyOptions(optFns)

	var loadFns []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadFns = append(loadFns, config.WithRegion(opts.Region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadFns...)
	if err != nil {
		return nil, fmt.Errorf("s3: load config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	return &Store{client: client, bucket: bucket, opts: opts}, nil
}

// NewStore creates a Store over an existing client.
func NewStore(client Client, bucket string, optFns ...Option) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		opts:   applyOptions(optFns),
	}
}

func (s *Store) key(name string) string {
	if s.opts.Prefix == "" {
		return name
	}
	return path.Join(s.opts.Prefix, name)
}

// Open issues a HEAD request to learn the object size.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, translate(err)
	}

	return &blob{
		client: s.client,
		bucket: s.bucket,
		key:    key,
		size:   aws.ToInt64(head.ContentLength),
		etag:   aws.ToString(head.ETag),
	}, nil
}

// Download fetches the whole object with parallel ranged GETs.
func (s *Store) Download(ctx context.Context, name string, w io.WriterAt) (int64, error) {
	d := manager.NewDownloader(s.client, func(d *manager.Downloader) {
		d.PartSize = s.opts.PartSize
		d.Concurrency = s.opts.Concurrency
	})

	n, err := d.Download(ctx, w, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return n, translate(err)
	}
	return n, nil
}

func translate(err error) error {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return blobstore.ErrNotFound
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return blobstore.ErrNotFound
	}
	return err
}
