package loader

import (
	"log/slog"
	"time"
)

type Option func(*Loader)

// WithProbe sets the readiness probe consulted before injecting
func WithProbe(probe Probe) Option {
	return func(l *Loader) {
		l.probe = probe
	}
}

// WithTimeout bounds the injection
func WithTimeout(timeout time.Duration) Option {
	return func(l *Loader) {
		if timeout > 0 {
			l.timeout = timeout
		}
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}
