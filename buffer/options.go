package buffer

import (
	"log/slog"
	"time"
)

const defaultMaxWaitTime = 10 * time.Second

// Options configures a Manager.
type Options struct {
	// Strategy decides which unpinned buffer is replaced. A nil Strategy means a fresh LRUStrategy.
	Strategy ReplacementStrategy
	// MaxWaitTime bounds how long Pin waits for a buffer, measured from the first attempt.
	MaxWaitTime time.Duration
	// Logger receives eviction (Debug) and Pin timeout (Warn) events.
	Logger *slog.Logger
}

// DefaultOptions returns the configuration used when no Option is given.
func DefaultOptions() Options {
	return Options{
		MaxWaitTime: defaultMaxWaitTime,
		Logger:      slog.Default(),
	}
}

type Option func(*Options)

// WithStrategy selects the replacement strategy. A strategy instance must not be shared between managers.
func WithStrategy(strategy ReplacementStrategy) Option {
	return func(o *Options) {
		o.Strategy = strategy
	}
}

func WithMaxWaitTime(d time.Duration) Option {
	return func(o *Options) {
		o.MaxWaitTime = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}
