package codeflow

import (
	"log/slog"
	"time"

	"github.com/viant/authflow/loader"
)

type Option func(*Controller)

// WithLoader sets the loader awaited by Init; without one the SDK is assumed present
func WithLoader(l *loader.Loader) Option {
	return func(c *Controller) {
		c.loader = l
	}
}

// WithFallbackDelay sets the delay between regained focus and the implicit cancel check
func WithFallbackDelay(delay time.Duration) Option {
	return func(c *Controller) {
		if delay > 0 {
			c.fallbackDelay = delay
		}
	}
}

// WithMinElapsed sets the minimum time since Start before an implicit cancel
func WithMinElapsed(elapsed time.Duration) Option {
	return func(c *Controller) {
		if elapsed > 0 {
			c.minElapsed = elapsed
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithListener observes every state change
func WithListener(listener func(State)) Option {
	return func(c *Controller) {
		c.listeners = append(c.listeners, listener)
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}
