package seekline

import (
	"log/slog"

	"github.com/hupe1980/seekline/compress"
	"github.com/hupe1980/seekline/cursor"
	"github.com/hupe1980/seekline/estimate"
	"github.com/hupe1980/seekline/internal/fs"
	"github.com/hupe1980/seekline/internal/resource"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	bufferSize       int
	estimateOptions  []estimate.Option
	resources        *resource.Controller
	algorithm        compress.Algorithm
	detect           bool
	mmap             bool
	fileSystem       fs.FileSystem
}

// Option configures Open, OpenBlob and NewFile.
type Option func(*options)

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &seekline.BasicMetricsCollector{}
//	f, _ := seekline.Open("app.log", seekline.WithMetricsCollector(metrics))
//	// ... search f ...
//	stats := metrics.GetStats()
//	fmt.Printf("Searches: %d, avg probes: %d\n", stats.SearchCount, stats.SearchProbes/stats.SearchCount)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := seekline.NewJSONLogger(slog.LevelInfo)
//	f, _ := seekline.Open("app.log.gz", seekline.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithBufferSize sets the window size of cursors created by the File.
// Larger windows mean fewer reads per search at the cost of memory; for
// remote objects a window is one ranged request.
func WithBufferSize(n int) Option {
	return func(o *options) {
		o.bufferSize = n
	}
}

// WithEstimateOptions sets the accuracy of the Estimate methods.
//
//	f, _ := seekline.Open("app.log.zst", seekline.WithEstimateOptions(
//	    estimate.WithMaxError(0.05),
//	    estimate.WithProbability(0.9),
//	))
func WithEstimateOptions(optFns ...estimate.Option) Option {
	return func(o *options) {
		o.estimateOptions = append(o.estimateOptions, optFns...)
	}
}

// WithResourceLimits bounds the memory held by cursor windows and the read
// throughput of file and blob sources. Mapped files are not throttled. A zero
// value leaves that resource unlimited.
func WithResourceLimits(memoryBytes, ioBytesPerSec int64) Option {
	return func(o *options) {
		o.resources = resource.NewController(resource.Config{
			MemoryLimitBytes:   memoryBytes,
			IOLimitBytesPerSec: ioBytesPerSec,
		})
	}
}

// WithAlgorithm forces the compression algorithm instead of detecting it.
// compress.None treats the file as plain bytes.
func WithAlgorithm(alg compress.Algorithm) Option {
	return func(o *options) {
		o.algorithm = alg
		o.detect = false
	}
}

// WithMmap memory-maps local uncompressed files instead of reading them
// through the page cache with read(2).
func WithMmap() Option {
	return func(o *options) {
		o.mmap = true
	}
}

// withFileSystem replaces the filesystem used by Open.
func withFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fileSystem = fsys
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		bufferSize:       cursor.DefaultBufferSize,
		detect:           true,
		fileSystem:       fs.Default,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

func (o options) cursorOptions() []cursor.Option {
	return []cursor.Option{
		cursor.WithBufferSize(o.bufferSize),
		cursor.WithLogger(o.logger.Logger),
		cursor.WithObserver(refillObserver{mc: o.metricsCollector}),
		cursor.WithResourceController(o.resources),
	}
}

func (o options) estimatorOptions() []estimate.Option {
	optFns := []estimate.Option{estimate.WithLogger(o.logger.Logger)}
	return append(optFns, o.estimateOptions...)
}
