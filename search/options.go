package search

import "log/slog"

// Observer receives search statistics.
type Observer interface {
	// OnSearch is called after every FindFirstAtLeast call.
	OnSearch(probes, scanned int, err error)
}

// NoopObserver is a no-op implementation of Observer.
type NoopObserver struct{}

func (NoopObserver) OnSearch(int, int, error) {}

// Options configures a Searcher.
type Options struct {
	// Logger receives debug events. Nil disables logging.
	Logger *slog.Logger
	// Observer receives per-search statistics.
	Observer Observer
}

// Option configures a Searcher.
type Option func(*Options)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithObserver sets the search observer.
func WithObserver(obs Observer) Option {
	return func(o *Options) {
		if obs == nil {
			obs = NoopObserver{}
		}
		o.Observer = obs
	}
}

func applyOptions(optFns []Option) Options {
	o := Options{Observer: NoopObserver{}}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
