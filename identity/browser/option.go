package browser

import (
	"log/slog"
	"time"
)

type Option func(*SDK)

// WithOpener sets the URL opener, SystemOpener by default
func WithOpener(opener Opener) Option {
	return func(s *SDK) {
		s.opener = opener
	}
}

// WithClientSecret sets the client secret used by Exchange
func WithClientSecret(secret string) Option {
	return func(s *SDK) {
		s.clientSecret = secret
	}
}

// WithCallbackPort fixes the loopback port; 0 picks a free port
func WithCallbackPort(port int) Option {
	return func(s *SDK) {
		s.callbackPort = port
	}
}

// WithPendingTTL sets how long a request waits for its callback
func WithPendingTTL(ttl time.Duration) Option {
	return func(s *SDK) {
		if ttl > 0 {
			s.pendingTTL = ttl
		}
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *SDK) {
		if logger != nil {
			s.logger = logger
		}
	}
}
