package browser

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/viant/authflow/identity"
	"github.com/viant/mcp-protocol/oauth2/meta"
	"golang.org/x/oauth2"
)

// DefaultPendingTTL bounds how long a code request waits for its callback.
const DefaultPendingTTL = 10 * time.Minute

var (
	// ErrNotLoaded indicates the provider metadata has not been loaded yet
	ErrNotLoaded = errors.New("browser sdk: provider metadata not loaded")
	// ErrMissingCallback indicates a code client config without callback
	ErrMissingCallback = errors.New("browser sdk: missing callback")
)

// MetadataProvider exposes loaded authorization server metadata
type MetadataProvider interface {
	Metadata() *meta.AuthorizationServerMetadata
}

// SDK creates browser-backed code clients
type SDK struct {
	metadata     MetadataProvider
	clientSecret string
	opener       Opener
	callbackPort int
	pendingTTL   time.Duration
	logger       *slog.Logger
}

// InitCodeClient creates a code client bound to loaded metadata
func (s *SDK) InitCodeClient(config *identity.CodeClientConfig) (identity.CodeClient, error) {
	if config == nil || config.ClientID == "" {
		return nil, fmt.Errorf("browser sdk: missing client id")
	}
	if config.Callback == nil {
		return nil, ErrMissingCallback
	}
	var metadata *meta.AuthorizationServerMetadata
	if s.metadata != nil {
		metadata = s.metadata.Metadata()
	}
	if metadata == nil {
		return nil, ErrNotLoaded
	}
	uxMode := config.UXMode
	if uxMode == "" {
		uxMode = identity.UXModePopup
	}
	oauthConfig := &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: s.clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  metadata.AuthorizationEndpoint,
			TokenURL: metadata.TokenEndpoint,
		},
		Scopes: strings.Fields(config.Scope),
	}
	return &Client{
		sdk:      s,
		config:   oauthConfig,
		uxMode:   uxMode,
		callback: config.Callback,
		pending:  newPendingStore(),
		logger:   s.logger.With("client_id", config.ClientID),
	}, nil
}

// New creates an SDK reading provider metadata from the supplied provider
func New(metadata MetadataProvider, options ...Option) *SDK {
	ret := &SDK{
		metadata:   metadata,
		opener:     SystemOpener{},
		pendingTTL: DefaultPendingTTL,
		logger:     slog.Default().With("component", "browser_sdk"),
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

var _ identity.SDK = (*SDK)(nil)
