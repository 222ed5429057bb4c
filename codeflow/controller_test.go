package codeflow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/authflow/identity"
	"github.com/viant/authflow/loader"
)

type fakeClient struct {
	requestCode func() error
	requests    atomic.Int32
	cancelled   atomic.Int32
	closed      atomic.Bool
}

func (f *fakeClient) RequestCode() error {
	f.requests.Add(1)
	if f.requestCode != nil {
		return f.requestCode()
	}
	return nil
}

func (f *fakeClient) CancelPending() {
	f.cancelled.Add(1)
}

func (f *fakeClient) Close() error {
	f.closed.Store(true)
	return nil
}

type fakeSDK struct {
	client   *fakeClient
	err      error
	mux      sync.Mutex
	config   *identity.CodeClientConfig
	initCall int
}

func (f *fakeSDK) InitCodeClient(config *identity.CodeClientConfig) (identity.CodeClient, error) {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.initCall++
	f.config = config
	if f.err != nil {
		return nil, f.err
	}
	return f.client, nil
}

func (f *fakeSDK) callback(response *identity.Response) {
	f.mux.Lock()
	cb := f.config.Callback
	f.mux.Unlock()
	cb(response)
}

type recorder struct {
	mux   sync.Mutex
	codes []string
	err   error
	calls atomic.Int32
}

func (r *recorder) handle(_ context.Context, code, locale string) error {
	r.calls.Add(1)
	r.mux.Lock()
	defer r.mux.Unlock()
	r.codes = append(r.codes, code+"/"+locale)
	return r.err
}

func newReady(t *testing.T, handler Handler, options ...Option) (*Controller, *fakeSDK) {
	sdk := &fakeSDK{client: &fakeClient{}}
	ctrl := New(Config{ClientID: "client-1", Scope: "openid email"}, sdk, handler, options...)
	require.NoError(t, ctrl.Init(context.Background()))
	t.Cleanup(func() { _ = ctrl.Close() })
	return ctrl, sdk
}

func TestController_Init(t *testing.T) {
	t.Run("missing client id", func(t *testing.T) {
		sdk := &fakeSDK{client: &fakeClient{}}
		injected := atomic.Int32{}
		l := loader.New(loader.SourceFunc(func(ctx context.Context) error {
			injected.Add(1)
			return nil
		}))
		ctrl := New(Config{}, sdk, nil, WithLoader(l))
		err := ctrl.Init(context.Background())
		assert.ErrorIs(t, err, ErrMissingClientID)
		assert.False(t, ctrl.IsReady())
		assert.Equal(t, "missing client id", ctrl.Error())
		assert.Equal(t, Failed, ctrl.State().Phase())
		assert.EqualValues(t, 0, injected.Load())
		assert.Equal(t, 0, sdk.initCall)

		ctrl.Start()
		assert.Equal(t, "missing client id", ctrl.Error())
		assert.False(t, ctrl.IsRunning())
	})

	t.Run("sdk load failure", func(t *testing.T) {
		l := loader.New(loader.SourceFunc(func(ctx context.Context) error {
			return errors.New("network error")
		}))
		ctrl := New(Config{ClientID: "client-1"}, &fakeSDK{client: &fakeClient{}}, nil, WithLoader(l))
		err := ctrl.Init(context.Background())
		assert.ErrorIs(t, err, ErrSDKUnavailable)
		assert.Equal(t, "identity sdk unavailable", ctrl.Error())
		assert.False(t, ctrl.IsReady())
	})

	t.Run("code client failure", func(t *testing.T) {
		ctrl := New(Config{ClientID: "client-1"}, &fakeSDK{err: errors.New("boom")}, nil)
		err := ctrl.Init(context.Background())
		assert.ErrorIs(t, err, ErrSDKUnavailable)
		assert.False(t, ctrl.IsReady())
	})

	t.Run("ready", func(t *testing.T) {
		ctrl, sdk := newReady(t, nil)
		assert.True(t, ctrl.IsReady())
		assert.False(t, ctrl.IsRunning())
		assert.Equal(t, "", ctrl.Error())
		assert.Equal(t, Ready, ctrl.State().Phase())
		assert.Equal(t, identity.UXModePopup, sdk.config.UXMode)
		assert.Equal(t, "openid email", sdk.config.Scope)
		require.NoError(t, ctrl.Init(context.Background()))
		assert.Equal(t, 1, sdk.initCall)
	})
}

func TestController_StartWithoutClientID(t *testing.T) {
	sdk := &fakeSDK{client: &fakeClient{}}
	injected := atomic.Int32{}
	l := loader.New(loader.SourceFunc(func(ctx context.Context) error {
		injected.Add(1)
		return nil
	}))
	var states []State
	ctrl := New(Config{}, sdk, nil, WithLoader(l), WithListener(func(s State) { states = append(states, s) }))
	ctrl.Start()
	assert.Equal(t, "missing client id", ctrl.Error())
	assert.ErrorIs(t, ctrl.Err(), ErrMissingClientID)
	assert.False(t, ctrl.IsReady())
	assert.False(t, ctrl.IsRunning())
	assert.EqualValues(t, 0, injected.Load())
	assert.Equal(t, 0, sdk.initCall)
	require.Len(t, states, 1)
	assert.Equal(t, Failed, states[0].Phase())

	assert.ErrorIs(t, ctrl.Init(context.Background()), ErrMissingClientID)
	assert.EqualValues(t, 0, injected.Load())
}

func TestController_ConcurrentInit(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	l := loader.New(loader.SourceFunc(func(ctx context.Context) error {
		once.Do(func() { close(entered) })
		<-release
		return nil
	}))
	sdk := &fakeSDK{client: &fakeClient{}}
	ctrl := New(Config{ClientID: "client-1"}, sdk, nil, WithLoader(l))
	defer ctrl.Close()

	errs := make(chan error, 2)
	go func() { errs <- ctrl.Init(context.Background()) }()
	<-entered
	go func() { errs <- ctrl.Init(context.Background()) }()
	time.Sleep(20 * time.Millisecond)
	close(release)
	for i := 0; i < 2; i++ {
		select {
		case err := <-errs:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("init did not return")
		}
	}
	assert.True(t, ctrl.IsReady())
	sdk.mux.Lock()
	defer sdk.mux.Unlock()
	assert.Equal(t, 1, sdk.initCall)
}

func TestController_InitWaitHonoursContext(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	l := loader.New(loader.SourceFunc(func(ctx context.Context) error {
		close(entered)
		<-release
		return nil
	}))
	ctrl := New(Config{ClientID: "client-1"}, &fakeSDK{client: &fakeClient{}}, nil, WithLoader(l))
	defer ctrl.Close()
	done := make(chan error, 1)
	go func() { done <- ctrl.Init(context.Background()) }()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, ctrl.Init(ctx), context.DeadlineExceeded)
	close(release)
	assert.NoError(t, <-done)
	assert.True(t, ctrl.IsReady())
}

func TestController_StartNotInitialized(t *testing.T) {
	ctrl := New(Config{ClientID: "client-1"}, &fakeSDK{client: &fakeClient{}}, nil)
	ctrl.Start()
	assert.Equal(t, "not initialized", ctrl.Error())
	assert.False(t, ctrl.IsRunning())
}

func TestController_Success(t *testing.T) {
	rec := &recorder{}
	var states []State
	var mux sync.Mutex
	ctrl, sdk := newReady(t, rec.handle, WithListener(func(s State) {
		mux.Lock()
		states = append(states, s)
		mux.Unlock()
	}))

	ctrl.Start()
	assert.True(t, ctrl.IsRunning())
	sdk.callback(&identity.Response{Code: "abc"})

	assert.False(t, ctrl.IsRunning())
	assert.True(t, ctrl.IsReady())
	assert.Equal(t, "", ctrl.Error())
	assert.Equal(t, []string{"abc/en"}, rec.codes)

	mux.Lock()
	defer mux.Unlock()
	require.NotEmpty(t, states)
	assert.Equal(t, Ready, states[len(states)-1].Phase())
}

func TestController_StartWhileRunningIsNoop(t *testing.T) {
	ctrl, sdk := newReady(t, nil)
	ctrl.Start()
	ctrl.Start()
	assert.EqualValues(t, 1, sdk.client.requests.Load())
	assert.True(t, ctrl.IsRunning())
}

func TestController_HandlerFailure(t *testing.T) {
	rec := &recorder{err: errors.New("401")}
	ctrl, sdk := newReady(t, rec.handle)
	ctrl.Start()
	sdk.callback(&identity.Response{Code: "abc"})
	assert.False(t, ctrl.IsRunning())
	assert.True(t, ctrl.IsReady())
	assert.Equal(t, "handler failed", ctrl.Error())
	assert.ErrorIs(t, ctrl.Err(), ErrHandlerFailed)

	ctrl.Reset()
	assert.Equal(t, "", ctrl.Error())
	assert.True(t, ctrl.IsReady())
}

func TestController_CallbackErrors(t *testing.T) {
	testCases := []struct {
		description string
		code        string
		expectError string
	}{
		{description: "popup closed", code: identity.ErrorPopupClosed},
		{description: "access denied", code: identity.ErrorAccessDenied},
		{description: "missing code", code: identity.ErrorInvalidState, expectError: identity.ErrorInvalidState},
		{description: "other", code: "server_error", expectError: "server_error"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			rec := &recorder{}
			ctrl, sdk := newReady(t, rec.handle)
			ctrl.Start()
			sdk.callback(&identity.Response{Error: testCase.code})
			assert.False(t, ctrl.IsRunning())
			assert.Equal(t, testCase.expectError, ctrl.Error())
			assert.EqualValues(t, 0, rec.calls.Load())
		})
	}
}

func TestController_PopupFailedToOpen(t *testing.T) {
	sdk := &fakeSDK{client: &fakeClient{requestCode: func() error { return errors.New("blocked") }}}
	ctrl := New(Config{ClientID: "client-1"}, sdk, nil)
	require.NoError(t, ctrl.Init(context.Background()))
	ctrl.Start()
	assert.False(t, ctrl.IsRunning())
	assert.True(t, ctrl.IsReady())
	assert.Equal(t, "popup failed to open", ctrl.Error())
}

type clock struct {
	mux sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.now = c.now.Add(d)
}

func TestController_FocusFallback(t *testing.T) {
	t.Run("focus after threshold cancels", func(t *testing.T) {
		clk := &clock{now: time.Unix(1000, 0)}
		rec := &recorder{}
		ctrl, sdk := newReady(t, rec.handle, WithClock(clk.Now))
		ctrl.Start()
		clk.Advance(1000 * time.Millisecond)
		ctrl.HandleFocus()
		assert.True(t, ctrl.IsRunning())
		assert.Eventually(t, func() bool { return !ctrl.IsRunning() }, 2*time.Second, 10*time.Millisecond)
		assert.Equal(t, "", ctrl.Error())
		assert.True(t, ctrl.IsReady())
		assert.EqualValues(t, 1, sdk.client.cancelled.Load())

		// a late callback after the heuristic cancel is dropped
		sdk.callback(&identity.Response{Code: "late"})
		assert.EqualValues(t, 0, rec.calls.Load())
		assert.False(t, ctrl.IsRunning())
	})

	t.Run("focus before threshold is ignored", func(t *testing.T) {
		clk := &clock{now: time.Unix(1000, 0)}
		ctrl, _ := newReady(t, nil, WithClock(clk.Now), WithFallbackDelay(20*time.Millisecond))
		ctrl.Start()
		clk.Advance(100 * time.Millisecond)
		ctrl.HandleVisibilityChange(true)
		time.Sleep(100 * time.Millisecond)
		assert.True(t, ctrl.IsRunning())
	})

	t.Run("hidden does not arm", func(t *testing.T) {
		clk := &clock{now: time.Unix(1000, 0)}
		ctrl, _ := newReady(t, nil, WithClock(clk.Now), WithFallbackDelay(10*time.Millisecond))
		ctrl.Start()
		clk.Advance(time.Second)
		ctrl.HandleVisibilityChange(false)
		time.Sleep(60 * time.Millisecond)
		assert.True(t, ctrl.IsRunning())
	})

	t.Run("callback clears timer", func(t *testing.T) {
		clk := &clock{now: time.Unix(1000, 0)}
		rec := &recorder{}
		ctrl, sdk := newReady(t, rec.handle, WithClock(clk.Now), WithFallbackDelay(30*time.Millisecond))
		ctrl.Start()
		clk.Advance(time.Second)
		ctrl.HandleFocus()
		sdk.callback(&identity.Response{Code: "abc"})
		assert.EqualValues(t, 1, rec.calls.Load())
		time.Sleep(80 * time.Millisecond)
		assert.False(t, ctrl.IsRunning())
		assert.Equal(t, "", ctrl.Error())
	})

	t.Run("second focus re-arms timer", func(t *testing.T) {
		clk := &clock{now: time.Unix(1000, 0)}
		delay := 150 * time.Millisecond
		var ended atomic.Int32
		ctrl, _ := newReady(t, nil, WithClock(clk.Now), WithFallbackDelay(delay), WithListener(func(s State) {
			if !s.Running {
				ended.Add(1)
			}
		}))
		ctrl.Start()
		clk.Advance(time.Second)
		ctrl.HandleFocus()
		time.Sleep(delay / 2)
		ctrl.HandleFocus()
		rearmed := time.Now()
		time.Sleep(delay * 2 / 3)
		// the first timer's deadline has passed
		assert.True(t, ctrl.IsRunning())
		assert.Eventually(t, func() bool { return !ctrl.IsRunning() }, 2*time.Second, 5*time.Millisecond)
		assert.GreaterOrEqual(t, time.Since(rearmed), delay)
		time.Sleep(delay)
		assert.EqualValues(t, 1, ended.Load())
	})

	t.Run("focus while idle does nothing", func(t *testing.T) {
		ctrl, _ := newReady(t, nil, WithFallbackDelay(10*time.Millisecond))
		ctrl.HandleFocus()
		time.Sleep(30 * time.Millisecond)
		assert.Equal(t, Ready, ctrl.State().Phase())
	})
}

func TestController_Close(t *testing.T) {
	rec := &recorder{}
	ctrl, sdk := newReady(t, rec.handle)
	ctrl.Start()
	require.NoError(t, ctrl.Close())
	assert.True(t, sdk.client.closed.Load())
	sdk.callback(&identity.Response{Code: "abc"})
	assert.EqualValues(t, 0, rec.calls.Load())
	assert.ErrorIs(t, ctrl.Init(context.Background()), ErrClosed)
}

func TestController_HandlerContextCancelledOnClose(t *testing.T) {
	entered := make(chan struct{})
	handlerErr := make(chan error, 1)
	ctrl, sdk := newReady(t, func(ctx context.Context, code, locale string) error {
		close(entered)
		<-ctx.Done()
		handlerErr <- ctx.Err()
		return ctx.Err()
	})
	ctrl.Start()
	go sdk.callback(&identity.Response{Code: "abc"})
	<-entered
	require.NoError(t, ctrl.Close())
	select {
	case err := <-handlerErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("handler context was not cancelled")
	}
}

func TestController_ResetDuringExchange(t *testing.T) {
	entered := make(chan struct{})
	handlerErr := make(chan error, 1)
	ctrl, sdk := newReady(t, func(ctx context.Context, code, locale string) error {
		close(entered)
		<-ctx.Done()
		handlerErr <- ctx.Err()
		return errors.New("rejected")
	})
	ctrl.Start()
	go sdk.callback(&identity.Response{Code: "abc"})
	<-entered
	ctrl.Reset()
	assert.EqualValues(t, 1, sdk.client.cancelled.Load())
	select {
	case err := <-handlerErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("handler context was not cancelled")
	}
	// the old attempt's failure does not surface after reset
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, Ready, ctrl.State().Phase())
	assert.Equal(t, "", ctrl.Error())

	ctrl.Start()
	assert.True(t, ctrl.IsRunning())
	assert.EqualValues(t, 2, sdk.client.requests.Load())
}

func TestNormalizeLocale(t *testing.T) {
	assert.Equal(t, "en", normalizeLocale(""))
	assert.Equal(t, "en", normalizeLocale("not a locale!"))
	assert.Equal(t, "pt-BR", normalizeLocale("pt-BR"))
	assert.Equal(t, "fr", normalizeLocale("fr"))
}
