package s3

import "github.com/aws/aws-sdk-go-v2/feature/s3/manager"

// Options configures a Store.
type Options struct {
	// Prefix is joined in front of every blob name.
	Prefix string
	// Region overrides the region of the default AWS config. Used by New only.
	Region string
	// Endpoint points the client at an S3-compatible server. Used by New only.
	Endpoint string
	// UsePathStyle addresses buckets as path segments. Used by New only.
	UsePathStyle bool
	// PartSize is the range size of a parallel download.
	PartSize int64
	// Concurrency is the number of parallel ranged GETs of a download.
	Concurrency int
}

// Option configures a Store.
type Option func(*Options)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(o *Options) { o.Prefix = prefix }
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(o *Options) { o.Region = region }
}

// WithEndpoint sets a custom endpoint and enables path-style addressing.
func WithEndpoint(endpoint string) Option {
	return func(o *Options) {
		o.Endpoint = endpoint
		o.UsePathStyle = true
	}
}

// WithDownload tunes parallel downloads.
func WithDownload(partSize int64, concurrency int) Option {
	return func(o *Options) {
		o.PartSize = partSize
		o.Concurrency = concurrency
	}
}

func applyOptions(optFns []Option) Options {
	opts := Options{
		PartSize:    manager.DefaultDownloadPartSize,
		Concurrency: manager.DefaultDownloadConcurrency,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.PartSize <= 0 {
		opts.PartSize = manager.DefaultDownloadPartSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = manager.DefaultDownloadConcurrency
	}
	return opts
}
