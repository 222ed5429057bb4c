// Package console implements the authflow command: it loads provider metadata
// once, signs the user in through the system browser with a loopback callback,
// or submits email credentials to the configured data API.
//
// A terminal has no focus events, so every line read from stdin is reported
// as regained focus; pressing Enter after closing the browser tab lets the
// controller conclude the handshake was abandoned.
package console
