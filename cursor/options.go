package cursor

import (
	"log/slog"

	"github.com/hupe1980/seekline/internal/resource"
)

// DefaultBufferSize is the default window capacity in bytes.
const DefaultBufferSize = 8196

// Direction identifies which window a refill loaded.
type Direction int

const (
	// Forward refills the right (lookahead) window.
	Forward Direction = iota
	// Backward refills the left (history) window.
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Observer receives window refill events.
type Observer interface {
	// OnRefill is called after a window was loaded from the underlying stream.
	OnRefill(dir Direction, bytes int)
}

// NoopObserver is a no-op implementation of Observer.
type NoopObserver struct{}

func (NoopObserver) OnRefill(Direction, int) {}

// Options configures a Reader.
type Options struct {
	// BufferSize is the capacity of each window in bytes.
	BufferSize int
	// Logger receives debug events. Nil disables logging.
	Logger *slog.Logger
	// Observer receives refill events.
	Observer Observer
	// Resources, if set, is charged for both windows for the lifetime of the Reader.
	Resources *resource.Controller
}

// Option configures a Reader.
type Option func(*Options)

// WithBufferSize sets the capacity of each window.
func WithBufferSize(n int) Option {
	return func(o *Options) {
		o.BufferSize = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithObserver sets the refill observer.
func WithObserver(obs Observer) Option {
	return func(o *Options) {
		if obs == nil {
			obs = NoopObserver{}
		}
		o.Observer = obs
	}
}

// WithResourceController charges the window memory against rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *Options) {
		o.Resources = rc
	}
}

func applyOptions(optFns []Option) Options {
	o := Options{
		BufferSize: DefaultBufferSize,
		Observer:   NoopObserver{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
