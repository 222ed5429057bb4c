package codeflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/authflow/identity"
	"github.com/viant/authflow/loader"
	"golang.org/x/text/language"
)

const (
	// DefaultFallbackDelay is the wait between regained focus and the implicit cancel check
	DefaultFallbackDelay = 350 * time.Millisecond
	// DefaultMinElapsed guards against focus flicker while the surface opens
	DefaultMinElapsed = 800 * time.Millisecond
	// DefaultLocale is used when no valid locale is configured
	DefaultLocale = "en"
)

// Handler receives the authorization code together with the active locale
type Handler func(ctx context.Context, code, locale string) error

// Config represents code flow settings
type Config struct {
	ClientID string          `json:"clientId" yaml:"clientId"`
	Scope    string          `json:"scope" yaml:"scope"`
	UXMode   identity.UXMode `json:"uxMode" yaml:"uxMode"`
	Locale   string          `json:"locale" yaml:"locale"`
}

// Controller runs the code-flow handshake; see package doc.
type Controller struct {
	config        Config
	locale        string
	sdk           identity.SDK
	handler       Handler
	loader        *loader.Loader
	fallbackDelay time.Duration
	minElapsed    time.Duration
	now           func() time.Time
	listeners     []func(State)
	logger        *slog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	initSem chan struct{}

	mux           sync.Mutex
	client        identity.CodeClient
	ready         bool
	running       bool
	exchanging    bool
	closed        bool
	err           error
	configErr     error
	attempt       string
	attemptCtx    context.Context
	attemptCancel context.CancelFunc
	startedAt     time.Time
	timer         *time.Timer
	timerSeq      uint64
}

// New creates a controller; call Init before Start.
func New(config Config, sdk identity.SDK, handler Handler, options ...Option) *Controller {
	ret := &Controller{
		config:        config,
		locale:        normalizeLocale(config.Locale),
		sdk:           sdk,
		handler:       handler,
		fallbackDelay: DefaultFallbackDelay,
		minElapsed:    DefaultMinElapsed,
		now:           time.Now,
		logger:        slog.Default().With("component", "codeflow"),
		initSem:       make(chan struct{}, 1),
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.config.UXMode == "" {
		ret.config.UXMode = identity.UXModePopup
	}
	ret.ctx, ret.cancel = context.WithCancel(context.Background())
	return ret
}

// Init waits for the identity SDK and creates the code client. Concurrent
// calls share a single code client.
func (c *Controller) Init(ctx context.Context) error {
	select {
	case c.initSem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-c.initSem }()

	c.mux.Lock()
	switch {
	case c.closed:
		c.mux.Unlock()
		return ErrClosed
	case c.ready:
		c.mux.Unlock()
		return nil
	case c.configErr != nil:
		err := c.configErr
		c.mux.Unlock()
		return err
	case c.config.ClientID == "":
		state := c.failLocked(ErrMissingClientID)
		c.mux.Unlock()
		c.logger.Error("code flow disabled", "error", ErrMissingClientID)
		c.emit(state)
		return ErrMissingClientID
	}
	c.mux.Unlock()

	if c.loader != nil {
		if err := c.loader.EnsureLoaded(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return err
			}
			return c.failInit(err)
		}
	}
	if c.sdk == nil {
		return c.failInit(fmt.Errorf("sdk was nil"))
	}
	client, err := c.sdk.InitCodeClient(&identity.CodeClientConfig{
		ClientID: c.config.ClientID,
		Scope:    c.config.Scope,
		UXMode:   c.config.UXMode,
		Callback: c.onResponse,
	})
	if err != nil {
		return c.failInit(err)
	}

	c.mux.Lock()
	if c.closed {
		c.mux.Unlock()
		closeClient(client)
		return ErrClosed
	}
	c.client = client
	c.ready = true
	state := c.snapshotLocked()
	c.mux.Unlock()
	c.logger.Debug("code client initialized", "ux_mode", c.config.UXMode, "locale", c.locale)
	c.emit(state)
	return nil
}

func (c *Controller) failInit(cause error) error {
	c.logger.Error("failed to initialize code client", "error", cause)
	c.mux.Lock()
	state := c.failLocked(ErrSDKUnavailable)
	c.mux.Unlock()
	c.emit(state)
	return fmt.Errorf("%w: %w", ErrSDKUnavailable, cause)
}

func (c *Controller) failLocked(err error) State {
	c.configErr = err
	c.err = err
	return c.snapshotLocked()
}

// Start opens the external surface. It is a no-op while an attempt is running.
func (c *Controller) Start() {
	c.mux.Lock()
	if c.closed {
		c.mux.Unlock()
		return
	}
	if c.running {
		c.mux.Unlock()
		c.logger.Debug("handshake already running")
		return
	}
	if !c.ready {
		if c.configErr == nil && c.config.ClientID == "" {
			c.configErr = ErrMissingClientID
		}
		if c.configErr != nil {
			c.err = c.configErr
		} else {
			c.err = ErrNotInitialized
		}
		state := c.snapshotLocked()
		c.mux.Unlock()
		c.emit(state)
		return
	}
	c.stopTimerLocked()
	c.err = nil
	c.running = true
	c.exchanging = false
	c.startedAt = c.now()
	c.attempt = uuid.NewString()
	c.attemptCtx, c.attemptCancel = context.WithCancel(c.ctx)
	attempt, client := c.attempt, c.client
	state := c.snapshotLocked()
	c.mux.Unlock()

	c.logger.Info("handshake started", "attempt", attempt)
	c.emit(state)
	if err := client.RequestCode(); err != nil {
		c.logger.Warn("failed to request code", "attempt", attempt, "error", err)
		c.finish(attempt, ErrPopupFailed)
	}
}

func (c *Controller) onResponse(response *identity.Response) {
	if response == nil {
		return
	}
	c.mux.Lock()
	if c.closed || !c.running || c.exchanging {
		c.mux.Unlock()
		c.logger.Debug("dropping callback outside a running attempt", "error", response.Error)
		return
	}
	c.stopTimerLocked()
	attempt, ctx := c.attempt, c.attemptCtx
	switch {
	case response.Error == "" && response.Code != "":
		c.exchanging = true
		c.mux.Unlock()
		c.exchange(ctx, attempt, response.Code)
		return
	case response.IsCancel():
		c.mux.Unlock()
		c.logger.Info("handshake cancelled", "attempt", attempt, "reason", response.Error)
		c.finish(attempt, nil)
	default:
		code := response.Error
		if code == "" {
			code = "empty response"
		}
		c.mux.Unlock()
		c.logger.Warn("handshake failed", "attempt", attempt, "reason", code)
		c.finish(attempt, errors.New(code))
	}
}

// exchange runs the handler; ctx is cancelled once the attempt ends by any other path.
func (c *Controller) exchange(ctx context.Context, attempt, code string) {
	var err error
	if c.handler != nil {
		err = c.handler(ctx, code, c.locale)
	}
	if err != nil {
		c.logger.Warn("code handler failed", "attempt", attempt, "error", err)
		c.finish(attempt, ErrHandlerFailed)
		return
	}
	c.logger.Info("handshake completed", "attempt", attempt)
	c.finish(attempt, nil)
}

// finish returns the given attempt to Ready with an optional error; stale attempts are ignored.
func (c *Controller) finish(attempt string, err error) {
	c.mux.Lock()
	if c.closed || !c.running || c.attempt != attempt {
		c.mux.Unlock()
		return
	}
	c.stopTimerLocked()
	c.endAttemptLocked()
	c.err = err
	state := c.snapshotLocked()
	c.mux.Unlock()
	c.emit(state)
}

// endAttemptLocked clears the running attempt and cancels its context
func (c *Controller) endAttemptLocked() {
	c.running = false
	c.exchanging = false
	c.attempt = ""
	if c.attemptCancel != nil {
		c.attemptCancel()
		c.attemptCancel = nil
	}
	c.attemptCtx = nil
}

// HandleFocus reports that the host regained focus
func (c *Controller) HandleFocus() {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.closed || !c.running || c.exchanging {
		return
	}
	c.stopTimerLocked()
	attempt, seq := c.attempt, c.timerSeq
	c.timer = time.AfterFunc(c.fallbackDelay, func() {
		c.fallback(attempt, seq)
	})
}

// HandleVisibilityChange reports a host visibility change
func (c *Controller) HandleVisibilityChange(visible bool) {
	if visible {
		c.HandleFocus()
	}
}

func (c *Controller) fallback(attempt string, seq uint64) {
	c.mux.Lock()
	if c.closed || !c.running || c.exchanging || c.attempt != attempt || c.timerSeq != seq {
		c.mux.Unlock()
		return
	}
	c.timer = nil
	elapsed := c.now().Sub(c.startedAt)
	if elapsed <= c.minElapsed {
		c.mux.Unlock()
		c.logger.Debug("ignoring focus shortly after start", "attempt", attempt, "elapsed", elapsed)
		return
	}
	c.endAttemptLocked()
	c.err = nil
	state, client := c.snapshotLocked(), c.client
	c.mux.Unlock()
	c.logger.Info("surface assumed closed", "attempt", attempt, "elapsed", elapsed)
	cancelPending(client)
	c.emit(state)
}

func (c *Controller) stopTimerLocked() {
	c.timerSeq++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Reset clears the error and running flags; readiness is kept. An exchange in
// flight sees its context cancelled.
func (c *Controller) Reset() {
	c.mux.Lock()
	c.stopTimerLocked()
	c.endAttemptLocked()
	c.err = nil
	state, client := c.snapshotLocked(), c.client
	c.mux.Unlock()
	cancelPending(client)
	c.emit(state)
}

// Close releases the controller; pending callbacks and timers have no effect afterwards.
func (c *Controller) Close() error {
	c.mux.Lock()
	if c.closed {
		c.mux.Unlock()
		return nil
	}
	c.closed = true
	c.stopTimerLocked()
	c.endAttemptLocked()
	client := c.client
	c.mux.Unlock()
	c.cancel()
	return closeClient(client)
}

func cancelPending(client identity.CodeClient) {
	if canceler, ok := client.(identity.Canceler); ok {
		canceler.CancelPending()
	}
}

func closeClient(client identity.CodeClient) error {
	if closer, ok := client.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// IsReady returns true once the code client was created
func (c *Controller) IsReady() bool {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.ready
}

// IsRunning returns true while a handshake is in progress
func (c *Controller) IsRunning() bool {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.running
}

// Error returns the surfaced error text, or empty
func (c *Controller) Error() string {
	return c.State().Error
}

// Err returns the surfaced error
func (c *Controller) Err() error {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.err
}

// Locale returns the normalized locale forwarded to the handler
func (c *Controller) Locale() string {
	return c.locale
}

// State returns a snapshot
func (c *Controller) State() State {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	ret := State{Ready: c.ready, Running: c.running}
	if c.err != nil {
		ret.Error = c.err.Error()
	}
	return ret
}

func (c *Controller) emit(state State) {
	for _, listener := range c.listeners {
		listener(state)
	}
}

func normalizeLocale(locale string) string {
	if locale == "" {
		return DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil || tag == language.Und {
		return DefaultLocale
	}
	return tag.String()
}
