// Package identity defines the narrow identity SDK surface consumed by the
// code-flow controller: a factory for code clients and the callback payload a
// client delivers once the external surface (popup, browser tab) completes.
package identity

// UXMode selects how the external surface is presented
type UXMode string

const (
	UXModePopup    UXMode = "popup"
	UXModeRedirect UXMode = "redirect"
)

// Callback error codes
const (
	// ErrorPopupClosed is reported when the user closed the surface
	ErrorPopupClosed = "popup_closed"
	// ErrorAccessDenied is reported when the user declined consent
	ErrorAccessDenied = "access_denied"
	// ErrorPopupFailedToOpen is reported when the surface could not be opened
	ErrorPopupFailedToOpen = "popup_failed_to_open"
	// ErrorInvalidState is reported when the callback state does not match a pending request
	ErrorInvalidState = "invalid_state"
)

// Response is delivered to the callback; exactly one of Code or Error is set.
type Response struct {
	Code  string `json:"code,omitempty"`
	Scope string `json:"scope,omitempty"`
	State string `json:"state,omitempty"`
	Error string `json:"error,omitempty"`
}

// IsCancel reports whether the response means the user abandoned the surface.
func (r *Response) IsCancel() bool {
	return r.Error == ErrorPopupClosed || r.Error == ErrorAccessDenied
}

// Callback receives the outcome of a code request. It may be invoked from any goroutine.
type Callback func(response *Response)

// CodeClientConfig configures a code client
type CodeClientConfig struct {
	ClientID string
	Scope    string
	UXMode   UXMode
	Callback Callback
}

// CodeClient requests an authorization code through an external surface.
// RequestCode returns once the surface was opened; the outcome arrives via Callback.
type CodeClient interface {
	RequestCode() error
}

// Canceler is implemented by code clients that can abandon outstanding requests,
// so late completions of an abandoned request are rejected.
type Canceler interface {
	CancelPending()
}

// SDK creates code clients
type SDK interface {
	InitCodeClient(config *CodeClientConfig) (CodeClient, error)
}

// SDKFunc adapts a function to SDK
type SDKFunc func(config *CodeClientConfig) (CodeClient, error)

func (f SDKFunc) InitCodeClient(config *CodeClientConfig) (CodeClient, error) {
	return f(config)
}
