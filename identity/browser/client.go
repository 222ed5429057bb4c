package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/viant/authflow/identity"
	"github.com/viant/scy/auth/flow"
	"golang.org/x/oauth2"
)

// Client is a browser-backed code client
type Client struct {
	sdk      *SDK
	config   *oauth2.Config
	uxMode   identity.UXMode
	callback identity.Callback
	pending  *pendingStore
	logger   *slog.Logger

	mux      sync.Mutex
	endpoint *endpoint
}

// RequestCode opens the browser on the authorization URL. The outcome is
// delivered to the callback once the provider redirects back.
func (c *Client) RequestCode() error {
	ep, err := c.ensureEndpoint()
	if err != nil {
		return err
	}
	state := flow.GenerateCodeVerifier()
	verifier := flow.GenerateCodeVerifier()
	redirectURI := ep.redirectURI()
	URL, err := flow.BuildAuthCodeURL(c.config,
		flow.WithPKCE(true),
		flow.WithState(state),
		flow.WithCodeVerifier(verifier),
		flow.WithRedirectURI(redirectURI))
	if err != nil {
		return fmt.Errorf("failed to build authorization url: %w", err)
	}
	// only the latest request can complete
	c.pending.clear()
	p := c.pending.put(state, verifier, redirectURI, c.sdk.pendingTTL)
	if err = c.sdk.opener.Open(URL); err != nil {
		c.pending.cancel(state)
		return fmt.Errorf("%v: %w", identity.ErrorPopupFailedToOpen, err)
	}
	c.logger.Debug("code requested", "pending", p.ID, "ux_mode", c.uxMode)
	return nil
}

// Exchange trades a code received by this client for tokens
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	p, ok := c.pending.takeCode(code)
	if !ok {
		return nil, fmt.Errorf("unknown or expired authorization code")
	}
	token, err := flow.Exchange(ctx, c.config, code,
		flow.WithCodeVerifier(p.Verifier),
		flow.WithRedirectURI(p.RedirectURI))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	if token == nil {
		return nil, fmt.Errorf("failed to get token")
	}
	return token, nil
}

// CancelPending abandons requests still awaiting their callback
func (c *Client) CancelPending() {
	c.pending.clear()
	c.logger.Debug("pending requests cancelled")
}

// Close stops the loopback endpoint
func (c *Client) Close() error {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.endpoint == nil {
		return nil
	}
	err := c.endpoint.close()
	c.endpoint = nil
	return err
}

func (c *Client) ensureEndpoint() (*endpoint, error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.endpoint != nil {
		return c.endpoint, nil
	}
	ep, err := newEndpoint(c.sdk.callbackPort, c.handleCallback)
	if err != nil {
		return nil, err
	}
	c.endpoint = ep
	return ep, nil
}

func (c *Client) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	response := &identity.Response{
		Code:  query.Get("code"),
		Scope: query.Get("scope"),
		State: query.Get("state"),
		Error: query.Get("error"),
	}
	if _, ok := c.pending.complete(response.State, response.Code); !ok {
		c.logger.Warn("ignoring callback without matching request", "state", response.State, "remote", r.RemoteAddr)
		writePage(w, http.StatusBadRequest, "Sign-in failed", "This sign-in request is unknown or has expired.")
		return
	}
	switch {
	case response.Error != "":
		writePage(w, http.StatusOK, "Sign-in not completed", "You can close this window.")
	case response.Code == "":
		response.Error = identity.ErrorInvalidState
		writePage(w, http.StatusBadRequest, "Sign-in failed", "The provider did not return an authorization code.")
	default:
		writePage(w, http.StatusOK, "Signed in", "You can close this window and return to the application.")
	}
	c.callback(response)
}

var (
	_ identity.CodeClient = (*Client)(nil)
	_ identity.Canceler   = (*Client)(nil)
)
