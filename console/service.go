package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/viant/afs/url"
	"github.com/viant/authflow/api"
	"github.com/viant/authflow/codeflow"
	"github.com/viant/authflow/config"
	"github.com/viant/authflow/flow"
	"github.com/viant/authflow/form"
	"github.com/viant/authflow/identity"
	"github.com/viant/authflow/identity/browser"
	"github.com/viant/authflow/identity/store"
	"github.com/viant/authflow/loader"
	"github.com/viant/authflow/notify"
	"github.com/viant/mcp-protocol/oauth2/meta"
	"github.com/viant/scy/auth/authorizer"
	"golang.org/x/oauth2"
)

const defaultSubmitPath = "/login"

// Credentials are the email sign-in form values
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func credentialsSchema() form.Schema[Credentials] {
	return form.Schema[Credentials]{
		Fields: map[string]form.FieldRule[Credentials]{
			"email":    form.Field(func(c Credentials) string { return c.Email }, form.Required, form.Email),
			"password": form.Field(func(c Credentials) string { return c.Password }, form.Required),
		},
	}
}

// LoaderFactory creates the identity sdk loader
type LoaderFactory func(source loader.Source, options ...loader.Option) *loader.Loader

// Option configures a service
type Option func(s *Service)

// WithLoaderFactory overrides loader.Shared
func WithLoaderFactory(factory LoaderFactory) Option {
	return func(s *Service) {
		s.newLoader = factory
	}
}

// WithBrowserOptions appends browser sdk options
func WithBrowserOptions(options ...browser.Option) Option {
	return func(s *Service) {
		s.browserOptions = append(s.browserOptions, options...)
	}
}

// Service signs a user in from the terminal
type Service struct {
	config         *config.Config
	out            io.Writer
	logger         *slog.Logger
	newLoader      LoaderFactory
	browserOptions []browser.Option
	screen         *flow.Screen[Credentials]
	tokens         store.Store
	states         chan codeflow.State

	mux        sync.Mutex
	client     *browser.Client
	token      *oauth2.Token
	redirected string
}

// New creates a service from command line options
func New(ctx context.Context, options *Options, out io.Writer, opts ...Option) (*Service, error) {
	cfg, err := loadConfig(ctx, options)
	if err != nil {
		return nil, err
	}
	ret := &Service{
		config:    cfg,
		out:       out,
		logger:    cfg.Logging.Logger(os.Stderr),
		newLoader: loader.Shared,
		tokens:    store.NewMemoryStore(),
		states:    make(chan codeflow.State, 16),
	}
	if cfg.TokenFile != "" {
		ret.tokens = store.NewFileStore(cfg.TokenFile)
	}
	for _, opt := range opts {
		opt(ret)
	}
	source := loader.NewMetadataSource(cfg.Issuer, nil)
	if cfg.OAuth2ConfigURL != "" {
		if err = ret.applyClientConfig(ctx, source); err != nil {
			return nil, err
		}
	}
	sdkLoader := ret.newLoader(source,
		loader.WithProbe(source.Ready),
		loader.WithTimeout(cfg.LoadTimeout),
		loader.WithLogger(ret.logger.With("component", "loader")))

	browserOptions := append([]browser.Option{
		browser.WithClientSecret(cfg.ClientSecret),
		browser.WithCallbackPort(cfg.CallbackPort),
		browser.WithLogger(ret.logger.With("component", "browser_sdk")),
	}, ret.browserOptions...)
	browserSDK := browser.New(source, browserOptions...)
	sdk := identity.SDKFunc(func(clientConfig *identity.CodeClientConfig) (identity.CodeClient, error) {
		client, err := browserSDK.InitCodeClient(clientConfig)
		if err != nil {
			return nil, err
		}
		ret.mux.Lock()
		ret.client, _ = client.(*browser.Client)
		ret.mux.Unlock()
		return client, nil
	})

	apiClient := api.New(cfg.API.BaseURL, nil)
	exchange := ret.exchangeToken
	if cfg.API.BaseURL != "" && cfg.API.ExchangePath != "" {
		exchange = apiClient.Exchange(cfg.API.ExchangePath)
	}
	manager := form.New(Credentials{}, ret.submit(apiClient),
		form.WithSchema(credentialsSchema()),
		form.WithNotifier[Credentials](&notify.Log{Logger: ret.logger}),
		form.WithNavigator[Credentials](form.NavigatorFunc(ret.navigate)),
		form.WithRedirect[Credentials](cfg.RedirectPolicy()),
		form.WithSuccessMessage[Credentials]("signed in"),
		form.WithLogger[Credentials](ret.logger.With("component", "form")))

	codeFlowOptions := append(cfg.CodeFlowOptions(),
		codeflow.WithLoader(sdkLoader),
		codeflow.WithLogger(ret.logger.With("component", "codeflow")),
		codeflow.WithListener(ret.onState))
	ret.screen = flow.New(manager, flow.WithOAuth[Credentials](cfg.CodeFlow(), sdk, exchange, codeFlowOptions...))
	return ret, nil
}

func loadConfig(ctx context.Context, options *Options) (*config.Config, error) {
	if options.ConfigURL != "" {
		return config.Load(ctx, options.ConfigURL, options.override)
	}
	cfg := &config.Config{}
	options.override(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// applyClientConfig loads the oauth2 client from the configured URL and publishes its endpoints as provider metadata
func (s *Service) applyClientConfig(ctx context.Context, source *loader.MetadataSource) error {
	auth := authorizer.New()
	oAuthConfig := &authorizer.OAuthConfig{ConfigURL: s.config.OAuth2ConfigURL}
	if err := auth.EnsureConfig(ctx, oAuthConfig); err != nil {
		return fmt.Errorf("failed to load oauth2 config %v: %w", s.config.OAuth2ConfigURL, err)
	}
	clientConfig := oAuthConfig.Config
	if s.config.ClientID == "" {
		s.config.ClientID = clientConfig.ClientID
	}
	if s.config.ClientSecret == "" {
		s.config.ClientSecret = clientConfig.ClientSecret
	}
	if s.config.Issuer == "" {
		s.config.Issuer, _ = url.Base(clientConfig.Endpoint.AuthURL, "https")
		source.Issuer = s.config.Issuer
	}
	source.Preload(&meta.AuthorizationServerMetadata{
		Issuer:                s.config.Issuer,
		AuthorizationEndpoint: clientConfig.Endpoint.AuthURL,
		TokenEndpoint:         clientConfig.Endpoint.TokenURL,
	})
	return nil
}

func (s *Service) submit(client *api.Client) form.SubmitFunc[Credentials] {
	if s.config.API.BaseURL == "" {
		return func(ctx context.Context, values Credentials) (*form.Envelope, error) {
			return nil, errors.New("api.base_url is required for email sign-in")
		}
	}
	path := s.config.API.SubmitPath
	if path == "" {
		path = defaultSubmitPath
	}
	return api.Submit[Credentials](client, path)
}

// exchangeToken trades the code at the provider when no exchange endpoint is configured
func (s *Service) exchangeToken(ctx context.Context, code, locale string) error {
	s.mux.Lock()
	client := s.client
	s.mux.Unlock()
	if client == nil {
		return errors.New("code client not initialized")
	}
	token, err := client.Exchange(ctx, code)
	if err != nil {
		return err
	}
	s.mux.Lock()
	s.token = token
	s.mux.Unlock()
	if err = s.tokens.AddToken(ctx, s.tokenKey(), token); err != nil {
		s.logger.Warn("failed to cache token", "error", err)
	}
	return nil
}

func (s *Service) tokenKey() store.TokenKey {
	return store.NewTokenKey(s.config.Issuer, s.config.Scope)
}

func (s *Service) navigate(path string) {
	s.mux.Lock()
	s.redirected = path
	s.mux.Unlock()
	fmt.Fprintf(s.out, "redirect: %v\n", path)
}

func (s *Service) onState(state codeflow.State) {
	select {
	case s.states <- state:
	default:
	}
}

// SignIn runs the browser handshake; every value received on focus reports regained focus.
func (s *Service) SignIn(ctx context.Context, focus <-chan struct{}) error {
	if token, ok := s.tokens.LookupToken(ctx, s.tokenKey()); ok && token.Valid() {
		s.mux.Lock()
		s.token = token
		s.mux.Unlock()
		fmt.Fprintln(s.out, "using cached token")
		s.printToken(token)
		return nil
	}
	if err := s.screen.Init(ctx); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "opening browser; press Enter here if you closed it without signing in")
	if err := s.screen.SignIn(); err != nil {
		return err
	}
	running := false
	for {
		select {
		case state := <-s.states:
			if state.Running {
				running = true
				continue
			}
			if running {
				return s.report(state)
			}
		case <-focus:
			s.screen.HandleFocus()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Service) report(state codeflow.State) error {
	if state.Error != "" {
		if message := s.screen.Form().Message(); message != "" {
			return fmt.Errorf("sign-in failed: %v: %v", state.Error, message)
		}
		return fmt.Errorf("sign-in failed: %v", state.Error)
	}
	s.mux.Lock()
	token, redirected := s.token, s.redirected
	s.mux.Unlock()
	if token == nil && redirected == "" {
		fmt.Fprintln(s.out, "sign-in cancelled")
		return nil
	}
	if token != nil {
		s.printToken(token)
	}
	return nil
}

func (s *Service) printToken(token *oauth2.Token) {
	raw, _ := token.Extra("id_token").(string)
	if raw == "" {
		raw = token.AccessToken
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		s.logger.Debug("token is not a jwt", "error", err)
		fmt.Fprintf(s.out, "token type: %v\n", token.TokenType)
		return
	}
	subject, _ := claims.GetSubject()
	issuer, _ := claims.GetIssuer()
	fmt.Fprintf(s.out, "subject: %v\nissuer: %v\n", subject, issuer)
}

// Login submits email credentials to the data api
func (s *Service) Login(ctx context.Context, email, password string) error {
	manager := s.screen.Form()
	manager.SetField("email", func(c *Credentials) { c.Email = email })
	manager.SetField("password", func(c *Credentials) { c.Password = password })
	outcome, err := s.screen.Submit(ctx)
	if err != nil {
		return err
	}
	switch outcome.Kind {
	case form.Success:
		return nil
	case form.ValidationFailed:
		for _, field := range outcome.Errors.Fields() {
			fmt.Fprintf(s.out, "%v: %v\n", field, outcome.Errors[field])
		}
		return errors.New("invalid credentials form")
	}
	return fmt.Errorf("sign-in rejected: %v", outcome.Message)
}

// Token returns the token obtained by the last browser sign-in
func (s *Service) Token() *oauth2.Token {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.token
}

// Close releases the code client
func (s *Service) Close() error {
	return s.screen.Close()
}
