package mock

import (
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// defaultAuthorizeHandler handles /authorize requests by redirecting straight
// back to redirect_uri, as if the user had consented.
func (m *AuthorizationService) defaultAuthorizeHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if query.Get("client_id") != m.ClientID {
		http.Error(w, "Invalid client ID", http.StatusBadRequest)
		return
	}
	redirectURI := query.Get("redirect_uri")
	if redirectURI == "" {
		http.Error(w, "Missing redirect URI", http.StatusBadRequest)
		return
	}
	target, err := url.Parse(redirectURI)
	if err != nil {
		http.Error(w, "Invalid redirect URI", http.StatusBadRequest)
		return
	}
	params := url.Values{}
	params.Set("state", query.Get("state"))
	if m.DenyWith != "" {
		params.Set("error", m.DenyWith)
	} else {
		code := "code_" + uuid.NewString()
		m.rememberChallenge(code, challenge{value: query.Get("code_challenge"), method: query.Get("code_challenge_method")})
		params.Set("code", code)
	}
	target.RawQuery = params.Encode()
	http.Redirect(w, r, target.String(), http.StatusFound)
}
