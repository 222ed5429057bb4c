// Package browser implements the identity SDK for Go hosts: the external
// surface is the system browser and the callback is received on a loopback
// endpoint.
//
// The SDK depends on authorization server metadata published by the loader.
// Each RequestCode builds a PKCE authorization URL, records a pending request
// keyed by its state and opens the browser. When the provider redirects back,
// the pending request is completed and the code client's callback receives the
// code (or the provider's error code). Closing the browser tab produces no
// callback at all; callers must infer cancellation themselves.
package browser
