// Package codeflow drives a third-party code-exchange sign-in handshake
// conducted through an external surface the host does not control.
//
// A Controller moves through Uninitialized → Ready → Running → (Ready | Error).
// Init waits for the identity SDK loader and creates a code client; Start asks
// the client for a code, which opens the surface. The SDK callback either
// carries a code, forwarded with the locale to the caller's Handler, or an
// error code. User cancellation is never surfaced as an error.
//
// Closing the surface does not reliably produce a callback, so the host also
// reports focus and visibility changes. When focus returns while Running, a
// fallback timer (350ms by default) is armed; if it fires while still Running
// and more than the minimum elapsed time (800ms) has passed since Start, the
// controller returns to Ready as if the user had cancelled. A genuine callback
// clears the timer. A callback that was about to arrive when the timer fired
// is dropped: the handler runs at most once per attempt. This window of
// ambiguity is accepted so a spinner never stays up forever.
package codeflow
