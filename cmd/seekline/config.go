package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/hupe1980/seekline"
	"github.com/hupe1980/seekline/compress"
	"github.com/hupe1980/seekline/cursor"
	"github.com/hupe1980/seekline/estimate"
)

// config holds the flags shared by all commands.
type config struct {
	logLevel    string
	logJSON     bool
	stats       bool
	jsonOut     bool
	algorithm   string
	bufferSize  int
	mmap        bool
	spool       bool
	tempDir     string
	memoryLimit int64
	ioLimit     int64

	cacheSize     int64
	cacheDir      string
	cacheDiskSize int64
	blockSize     int64

	s3Endpoint string
	s3Region   string

	maxError    float64
	probability float64

	metrics *seekline.BasicMetricsCollector
	log     *seekline.Logger
}

func (c *config) register(fs *flag.FlagSet) {
	fs.StringVar(&c.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	fs.BoolVar(&c.logJSON, "log-json", false, "write logs as JSON")
	fs.BoolVar(&c.stats, "stats", false, "print operation statistics to stderr")
	fs.BoolVar(&c.jsonOut, "json", false, "write results as JSON lines")
	fs.StringVar(&c.algorithm, "compression", "auto", "compression: auto, none, gzip, zstd or lz4")
	fs.IntVar(&c.bufferSize, "buffer", cursor.DefaultBufferSize, "cursor window size in bytes; one remote request per window")
	fs.BoolVar(&c.mmap, "mmap", false, "memory-map local files")
	fs.BoolVar(&c.spool, "spool", false, "copy remote sources to a temporary file before searching")
	fs.StringVar(&c.tempDir, "temp-dir", "", "directory for spooled and decompressed copies")
	fs.Int64Var(&c.memoryLimit, "memory-limit", 0, "limit for cursor window memory in bytes (0 = unlimited)")
	fs.Int64Var(&c.ioLimit, "io-limit", 0, "remote read throughput in bytes per second (0 = unlimited)")
	fs.Int64Var(&c.cacheSize, "cache-size", 64<<20, "in-memory block cache for remote sources in bytes (0 disables caching)")
	fs.StringVar(&c.cacheDir, "cache-dir", "", "persistent block cache directory for remote sources")
	fs.Int64Var(&c.cacheDiskSize, "cache-disk-size", 1<<30, "size of the persistent block cache in bytes")
	fs.Int64Var(&c.blockSize, "block-size", 64<<10, "block size of the remote cache in bytes")
	fs.StringVar(&c.s3Endpoint, "s3-endpoint", "", "custom S3 endpoint, enables path-style addressing")
	fs.StringVar(&c.s3Region, "s3-region", "", "S3 region (default from the AWS configuration)")
	fs.Float64Var(&c.maxError, "max-error", estimate.DefaultMaxError, "absolute error bound of estimates")
	fs.Float64Var(&c.probability, "probability", estimate.DefaultProbability, "confidence of estimates")
}

func (c *config) logger(stderr io.Writer) (*seekline.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.logLevel)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.logJSON {
		return seekline.NewLogger(slog.NewJSONHandler(stderr, opts)), nil
	}
	return seekline.NewLogger(slog.NewTextHandler(stderr, opts)), nil
}

// options translates the flags into File options. Compression is left to
// detection unless forced.
func (c *config) options(stderr io.Writer) ([]seekline.Option, error) {
	logger, err := c.logger(stderr)
	if err != nil {
		return nil, err
	}
	c.log = logger

	c.metrics = &seekline.BasicMetricsCollector{}
	opts := []seekline.Option{
		seekline.WithLogger(logger),
		seekline.WithMetricsCollector(c.metrics),
		seekline.WithBufferSize(c.bufferSize),
		seekline.WithResourceLimits(c.memoryLimit, c.ioLimit),
		seekline.WithEstimateOptions(
			estimate.WithMaxError(c.maxError),
			estimate.WithProbability(c.probability),
		),
	}
	if c.mmap {
		opts = append(opts, seekline.WithMmap())
	}
	if c.algorithm != "auto" {
		alg, err := compress.ParseAlgorithm(c.algorithm)
		if err != nil {
			return nil, err
		}
		opts = append(opts, seekline.WithAlgorithm(alg))
	}
	return opts, nil
}

func (c *config) printStats(stderr io.Writer) {
	if !c.stats || c.metrics == nil {
		return
	}
	s := c.metrics.GetStats()
	fmt.Fprintf(stderr, "searches=%d probes=%d scanned=%d avg=%dns errors=%d\n",
		s.SearchCount, s.SearchProbes, s.SearchScanned, s.SearchAvgNanos, s.SearchErrors)
	fmt.Fprintf(stderr, "estimates=%d samples=%d errors=%d\n",
		s.EstimateCount, s.EstimateSamples, s.EstimateErrors)
	fmt.Fprintf(stderr, "refills=%d refill_bytes=%d\n", s.RefillCount, s.RefillBytes)
}
