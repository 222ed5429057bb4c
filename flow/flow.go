// Package flow binds one form manager and, optionally, one code-flow controller
// to a screen so both paths share a single busy flag, error surface and redirect.
package flow

import (
	"context"
	"errors"

	"github.com/viant/authflow/codeflow"
	"github.com/viant/authflow/form"
	"github.com/viant/authflow/identity"
)

// ErrNoOAuth is returned by SignIn when the screen has no code-flow controller
var ErrNoOAuth = errors.New("oauth sign-in not configured")

// Screen integrates a form with an optional code-flow controller
type Screen[T any] struct {
	form  *form.Manager[T]
	oauth *codeflow.Controller
}

// Option configures a screen
type Option[T any] func(s *Screen[T])

// WithOAuth adds a code-flow controller whose code handler runs exchange and
// applies its result through the form surface.
func WithOAuth[T any](config codeflow.Config, sdk identity.SDK, exchange codeflow.Handler, options ...codeflow.Option) Option[T] {
	return func(s *Screen[T]) {
		s.oauth = codeflow.New(config, sdk, func(ctx context.Context, code, locale string) error {
			var err error
			if exchange != nil {
				err = exchange(ctx, code, locale)
			}
			// attempt was reset or closed while exchanging
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			s.form.Resolve(err)
			return err
		}, options...)
		s.form.Attach(s.oauth)
	}
}

// New creates a screen for the form
func New[T any](manager *form.Manager[T], options ...Option[T]) *Screen[T] {
	ret := &Screen[T]{form: manager}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Form returns the form manager
func (s *Screen[T]) Form() *form.Manager[T] {
	return s.form
}

// OAuth returns the code-flow controller or nil
func (s *Screen[T]) OAuth() *codeflow.Controller {
	return s.oauth
}

// IsBusy returns true while the form submits or the handshake runs
func (s *Screen[T]) IsBusy() bool {
	return s.form.Submitting() || (s.oauth != nil && s.oauth.IsRunning())
}

// Init initializes the code-flow controller when present
func (s *Screen[T]) Init(ctx context.Context) error {
	if s.oauth == nil {
		return nil
	}
	return s.oauth.Init(ctx)
}

// SignIn starts the handshake
func (s *Screen[T]) SignIn() error {
	if s.oauth == nil {
		return ErrNoOAuth
	}
	if s.form.Submitting() {
		return form.ErrBusy
	}
	s.oauth.Start()
	if err := s.oauth.Err(); err != nil && !s.oauth.IsRunning() {
		return err
	}
	return nil
}

// Submit submits the form
func (s *Screen[T]) Submit(ctx context.Context) (*form.Outcome, error) {
	return s.form.Submit(ctx)
}

// HandleFocus forwards a focus event to the controller
func (s *Screen[T]) HandleFocus() {
	if s.oauth != nil {
		s.oauth.HandleFocus()
	}
}

// HandleVisibilityChange forwards a visibility event to the controller
func (s *Screen[T]) HandleVisibilityChange(visible bool) {
	if s.oauth != nil {
		s.oauth.HandleVisibilityChange(visible)
	}
}

// Close releases the controller
func (s *Screen[T]) Close() error {
	if s.oauth == nil {
		return nil
	}
	return s.oauth.Close()
}
