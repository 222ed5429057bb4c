package form

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/viant/authflow/notify"
)

// SubmitFunc persists the values; a nil envelope means success
type SubmitFunc[T any] func(ctx context.Context, values T) (*Envelope, error)

// RunningReporter reports an externally driven operation, e.g. a code-flow handshake
type RunningReporter interface {
	IsRunning() bool
}

// OutcomeKind is the submission outcome variant
type OutcomeKind int

const (
	Success OutcomeKind = iota
	ValidationFailed
	ServerRejected
)

func (k OutcomeKind) String() string {
	switch k {
	case ValidationFailed:
		return "validation_failed"
	case ServerRejected:
		return "server_rejected"
	}
	return "success"
}

// Outcome is produced once per submission attempt
type Outcome struct {
	Kind    OutcomeKind
	Errors  FieldErrors
	Message string
}

// Manager tracks values, errors and the submission lifecycle of one form
type Manager[T any] struct {
	submit SubmitFunc[T]
	options[T]

	mux        sync.Mutex
	values     T
	errors     FieldErrors
	message    string
	submitting bool
	reporters  []RunningReporter
}

// New creates a manager with initial values
func New[T any](initial T, submit SubmitFunc[T], opts ...Option[T]) *Manager[T] {
	ret := &Manager[T]{
		submit: submit,
		values: initial,
		errors: FieldErrors{},
		options: options[T]{
			notifier:        notify.Nop{},
			fallbackMessage: DefaultFallbackMessage,
			logger:          slog.Default().With("component", "form"),
		},
	}
	for _, opt := range opts {
		opt(&ret.options)
	}
	return ret
}

// Attach includes the reporter's running flag in Busy
func (m *Manager[T]) Attach(reporter RunningReporter) {
	if reporter == nil {
		return
	}
	m.mux.Lock()
	defer m.mux.Unlock()
	m.reporters = append(m.reporters, reporter)
}

// SetField applies a change to one field, clears its errors and re-validates only that field.
func (m *Manager[T]) SetField(name string, apply func(values *T)) {
	m.mux.Lock()
	defer m.mux.Unlock()
	apply(&m.values)
	delete(m.errors, name)
	if messages := m.schema.ValidateField(name, m.values); len(messages) > 0 {
		m.errors[name] = messages
	}
}

// Submit validates and submits the values. ErrBusy is returned while busy.
func (m *Manager[T]) Submit(ctx context.Context) (*Outcome, error) {
	m.mux.Lock()
	if m.busyLocked() {
		m.mux.Unlock()
		m.logger.Debug("ignoring submit while busy")
		return nil, ErrBusy
	}
	if errs := m.schema.ValidateAll(m.values); len(errs) > 0 {
		m.errors = errs
		m.message = ""
		m.mux.Unlock()
		return &Outcome{Kind: ValidationFailed, Errors: errs.Clone()}, nil
	}
	m.submitting = true
	values := m.values
	m.mux.Unlock()

	var err error
	if m.submit != nil {
		var envelope *Envelope
		envelope, err = m.submit(ctx, values)
		if err == nil {
			err = envelope.Err()
		}
	}
	return m.resolve(err, true), nil
}

// Resolve applies the submission surface to an externally driven operation result
func (m *Manager[T]) Resolve(err error) *Outcome {
	return m.resolve(err, false)
}

func (m *Manager[T]) resolve(err error, submitted bool) *Outcome {
	m.mux.Lock()
	if submitted {
		m.submitting = false
	}
	outcome := &Outcome{Kind: Success}
	if err == nil {
		m.errors = FieldErrors{}
		m.message = ""
	} else {
		outcome.Kind = ServerRejected
		var serverErr *ServerError
		if errors.As(err, &serverErr) {
			if serverErr.Errors != nil {
				m.errors = serverErr.Errors.Clone()
			}
			m.message = serverErr.Message
			if m.message == "" && len(serverErr.Errors) == 0 {
				m.message = m.fallbackMessage
			}
		} else {
			m.message = m.fallbackMessage
		}
		outcome.Errors = m.errors.Clone()
		outcome.Message = m.message
	}
	m.mux.Unlock()

	if err != nil {
		m.logger.Warn("submission rejected", "error", err)
		if outcome.Message != "" {
			m.notifier.Error(outcome.Message)
		}
		return outcome
	}
	if m.successMessage != "" {
		m.notifier.Success(m.successMessage)
	}
	if target, ok := m.redirect.Target(); ok && m.navigator != nil {
		m.navigator.NavigateReplace(target)
	}
	return outcome
}

// Values returns a copy of the current values
func (m *Manager[T]) Values() T {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.values
}

// Errors returns a copy of the field errors
func (m *Manager[T]) Errors() FieldErrors {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.errors.Clone()
}

// Message returns the global message
func (m *Manager[T]) Message() string {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.message
}

// Submitting returns true while the submit operation runs
func (m *Manager[T]) Submitting() bool {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.submitting
}

// Busy returns true while submitting or while an attached reporter runs
func (m *Manager[T]) Busy() bool {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.busyLocked()
}

func (m *Manager[T]) busyLocked() bool {
	if m.submitting {
		return true
	}
	for _, reporter := range m.reporters {
		if reporter.IsRunning() {
			return true
		}
	}
	return false
}
