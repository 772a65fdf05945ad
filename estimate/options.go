package estimate

import (
	"fmt"
	"log/slog"
	"math"
)

const (
	// DefaultMaxError is the default absolute error bound.
	DefaultMaxError = 0.01
	// DefaultProbability is the default confidence level.
	DefaultProbability = 0.99
	// DefaultChunkSize is the number of decoded bytes read per ratio sample.
	DefaultChunkSize = 4 << 10
	// DefaultBootstrapBytes is the minimum number of decoded bytes sampled
	// before the ratio estimator may stop.
	DefaultBootstrapBytes = 16 << 20
	// DefaultBootstrapLines is the minimum number of lines sampled before the
	// line length estimator may stop.
	DefaultBootstrapLines = 10000
)

// Options configures the estimators.
type Options struct {
	// MaxError is the absolute error tolerated in the estimate.
	MaxError float64
	// Probability is the confidence that the estimate is within MaxError.
	Probability float64
	// ChunkSize is the read size of the compression ratio sampler.
	ChunkSize int
	// BootstrapBytes is the minimum decoded sample of the ratio estimator.
	BootstrapBytes int64
	// BootstrapLines is the minimum sample of the line length estimator.
	BootstrapLines int64
	// KeepPosition leaves the stream where sampling ended.
	KeepPosition bool
	// Logger receives estimator termination events. Nil disables logging.
	Logger *slog.Logger
}

// Option configures the estimators.
type Option func(o *Options)

// WithMaxError sets the absolute error bound.
func WithMaxError(maxError float64) Option {
	return func(o *Options) {
		o.MaxError = maxError
	}
}

// WithProbability sets the confidence level.
func WithProbability(p float64) Option {
	return func(o *Options) {
		o.Probability = p
	}
}

// WithChunkSize sets the read size of the compression ratio sampler.
func WithChunkSize(n int) Option {
	return func(o *Options) {
		o.ChunkSize = n
	}
}

// WithBootstrapBytes sets the minimum decoded sample for the ratio estimator.
func WithBootstrapBytes(n int64) Option {
	return func(o *Options) {
		o.BootstrapBytes = n
	}
}

// WithBootstrapLines sets the minimum sample for the line length estimator.
func WithBootstrapLines(n int64) Option {
	return func(o *Options) {
		o.BootstrapLines = n
	}
}

// WithKeepPosition leaves the stream where sampling ended instead of
// restoring the original offset.
func WithKeepPosition() Option {
	return func(o *Options) {
		o.KeepPosition = true
	}
}

// WithLogger sets the logger for estimator events.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

func applyOptions(optFns []Option) (Options, error) {
	opts := Options{
		MaxError:       DefaultMaxError,
		Probability:    DefaultProbability,
		ChunkSize:      DefaultChunkSize,
		BootstrapBytes: DefaultBootstrapBytes,
		BootstrapLines: DefaultBootstrapLines,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts, opts.validate()
}

func (o Options) validate() error {
	if !(o.MaxError > 0) || math.IsInf(o.MaxError, 1) {
		return fmt.Errorf("%w: %v", ErrInvalidMaxError, o.MaxError)
	}
	if !(o.Probability >= 0 && o.Probability < 1) {
		return fmt.Errorf("%w: %v", ErrInvalidProbability, o.Probability)
	}
	if o.ChunkSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidChunkSize, o.ChunkSize)
	}
	return nil
}

// chebyshevK returns the number of standard errors that bound the estimate
// with the given probability.
func chebyshevK(p float64) float64 {
	return 1 / math.Sqrt(1-p)
}

// split returns the options for one of two independent sub-estimates whose
// combined error and confidence match o.
func (o Options) split() Options {
	sub := o
	sub.MaxError = o.MaxError / 2
	sub.Probability = 1 - math.Sqrt(1-o.Probability)
	sub.KeepPosition = true
	return sub
}
