package form

import (
	"log/slog"

	"github.com/viant/authflow/notify"
)

// DefaultFallbackMessage is shown for unstructured failures
const DefaultFallbackMessage = "Something went wrong. Please try again."

type options[T any] struct {
	schema          *Schema[T]
	notifier        notify.Notifier
	navigator       Navigator
	redirect        Redirect
	successMessage  string
	fallbackMessage string
	logger          *slog.Logger
}

// Option configures a manager for values of type T
type Option[T any] func(o *options[T])

// WithSchema sets the validation schema
func WithSchema[T any](schema Schema[T]) Option[T] {
	return func(o *options[T]) {
		o.schema = &schema
	}
}

// WithNotifier sets the notification sink
func WithNotifier[T any](notifier notify.Notifier) Option[T] {
	return func(o *options[T]) {
		if notifier != nil {
			o.notifier = notifier
		}
	}
}

// WithNavigator sets the redirect mechanism
func WithNavigator[T any](navigator Navigator) Option[T] {
	return func(o *options[T]) {
		o.navigator = navigator
	}
}

// WithRedirect sets the redirect policy
func WithRedirect[T any](redirect Redirect) Option[T] {
	return func(o *options[T]) {
		o.redirect = redirect
	}
}

// WithSuccessMessage enables a success notification
func WithSuccessMessage[T any](message string) Option[T] {
	return func(o *options[T]) {
		o.successMessage = message
	}
}

// WithFallbackMessage overrides the message used for unstructured failures
func WithFallbackMessage[T any](message string) Option[T] {
	return func(o *options[T]) {
		if message != "" {
			o.fallbackMessage = message
		}
	}
}

// WithLogger sets logger
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(o *options[T]) {
		if logger != nil {
			o.logger = logger
		}
	}
}
