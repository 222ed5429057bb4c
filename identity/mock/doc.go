// Package mock provides an httptest authorization server that facilitates
// testing of code clients, the loader and code exchange without contacting a
// real identity provider.
//
// The server exposes /authorize, /token, /jwks and the
// /.well-known/oauth-authorization-server metadata document. Each endpoint can be
// replaced with a custom handler.
package mock
