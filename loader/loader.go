package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultTimeout bounds a single injection.
const DefaultTimeout = 30 * time.Second

// ErrUnavailable is returned to every caller once the load has failed.
var ErrUnavailable = errors.New("identity sdk unavailable")

// ErrNoSource indicates a loader created without a source.
var ErrNoSource = errors.New("loader: missing source")

// State represents the load lifecycle
type State int

const (
	Unloaded State = iota
	Loading
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	}
	return "unloaded"
}

// Source performs the one-time injection. Inject returns once the resource
// signals availability or the load failed.
type Source interface {
	Inject(ctx context.Context) error
}

// SourceFunc adapts a function to a Source
type SourceFunc func(ctx context.Context) error

func (f SourceFunc) Inject(ctx context.Context) error {
	return f(ctx)
}

// Probe reports whether the readiness object is already present.
type Probe func() bool

// Loader memoizes a single injection; see package doc.
type Loader struct {
	source  Source
	probe   Probe
	timeout time.Duration
	logger  *slog.Logger

	once  sync.Once
	done  chan struct{}
	mux   sync.RWMutex
	state State
	err   error
}

// New creates a loader for the supplied source
func New(source Source, options ...Option) *Loader {
	ret := &Loader{
		source:  source,
		timeout: DefaultTimeout,
		logger:  slog.Default().With("component", "loader"),
		done:    make(chan struct{}),
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// EnsureLoaded triggers the injection on first use and waits for its outcome.
// Cancelling ctx stops only this caller's wait; the shared injection continues.
func (l *Loader) EnsureLoaded(ctx context.Context) error {
	l.once.Do(l.start)
	select {
	case <-l.done:
		l.mux.RLock()
		defer l.mux.RUnlock()
		return l.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the load has settled.
func (l *Loader) Done() <-chan struct{} {
	return l.done
}

// State returns the current state and, when failed, the reason.
func (l *Loader) State() (State, error) {
	l.mux.RLock()
	defer l.mux.RUnlock()
	return l.state, l.err
}

func (l *Loader) start() {
	if l.probe != nil && l.probe() {
		l.logger.Debug("identity sdk already present, skipping injection")
		l.settle(nil)
		return
	}
	if l.source == nil {
		l.settle(ErrNoSource)
		return
	}
	l.mux.Lock()
	l.state = Loading
	l.mux.Unlock()
	go func() {
		// detached: a caller giving up must not abort the shared load
		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()
		l.settle(l.source.Inject(ctx))
	}()
}

func (l *Loader) settle(err error) {
	l.mux.Lock()
	if err != nil {
		l.state = Failed
		l.err = fmt.Errorf("%w: %w", ErrUnavailable, err)
		l.logger.Warn("identity sdk failed to load", "error", err)
	} else {
		l.state = Loaded
		l.logger.Info("identity sdk loaded")
	}
	l.mux.Unlock()
	close(l.done)
}

var (
	shared     *Loader
	sharedOnce sync.Once
)

// Shared returns the process-wide loader. The first call creates it from the
// given source and options; later calls ignore their arguments.
func Shared(source Source, options ...Option) *Loader {
	sharedOnce.Do(func() {
		shared = New(source, options...)
	})
	return shared
}
