package mock

import (
	"net/http"
)

// Handler routes HTTP requests to the mock endpoints.
type Handler struct {
	Server *AuthorizationService
}

// ServeHTTP dispatches incoming HTTP requests based on URL path.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/token":
		serve(w, r, h.Server.TokenHandler, h.Server.defaultTokenHandler)
	case "/authorize":
		serve(w, r, h.Server.AuthorizeHandler, h.Server.defaultAuthorizeHandler)
	case "/.well-known/oauth-authorization-server", "/.well-known/openid-configuration":
		h.Server.metadataRequests.Add(1)
		serve(w, r, h.Server.MetadataHandler, h.Server.defaultMetadataHandler)
	case "/jwks":
		serve(w, r, h.Server.JwksHandler, h.Server.defaultJwksHandler)
	default:
		http.NotFound(w, r)
	}
}

func serve(w http.ResponseWriter, r *http.Request, custom, fallback http.HandlerFunc) {
	if custom != nil {
		custom(w, r)
		return
	}
	fallback(w, r)
}
