package mock

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
)

// AuthorizationService simulates an OAuth2 authorization server
type AuthorizationService struct {
	PrivateKey       *rsa.PrivateKey
	Issuer           string
	ClientID         string
	ClientSecret     string
	AuthorizedScopes []string
	// DenyWith, when set, makes /authorize redirect back with this error code
	DenyWith string

	TokenHandler     func(w http.ResponseWriter, r *http.Request)
	AuthorizeHandler func(w http.ResponseWriter, r *http.Request)
	MetadataHandler  func(w http.ResponseWriter, r *http.Request)
	JwksHandler      func(w http.ResponseWriter, r *http.Request)

	metadataRequests atomic.Int32
	mux              sync.Mutex
	challenges       map[string]challenge
}

type Option func(*AuthorizationService)

// WithClient sets the accepted client credentials
func WithClient(clientID, clientSecret string) Option {
	return func(s *AuthorizationService) {
		s.ClientID = clientID
		s.ClientSecret = clientSecret
	}
}

// WithDeny makes every authorization request fail with the error code
func WithDeny(code string) Option {
	return func(s *AuthorizationService) {
		s.DenyWith = code
	}
}

// MetadataRequests returns how many times the metadata document was served
func (m *AuthorizationService) MetadataRequests() int {
	return int(m.metadataRequests.Load())
}

// NewAuthorizationService creates a new mock authorization server
func NewAuthorizationService(opts ...Option) (*AuthorizationService, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %v", err)
	}
	service := &AuthorizationService{
		PrivateKey:       privateKey,
		ClientID:         "test_client_id",
		ClientSecret:     "test_client_secret",
		AuthorizedScopes: []string{"openid", "profile", "email"},
		challenges:       map[string]challenge{},
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Handler returns an http.Handler for all mock endpoints
func (m *AuthorizationService) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", &Handler{Server: m})
	return mux
}

// challenge is the PKCE challenge recorded for an issued code
type challenge struct {
	value  string
	method string
}

func (c challenge) verify(verifier string) bool {
	if c.value == "" {
		return true
	}
	if c.method == "plain" {
		return verifier == c.value
	}
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:]) == c.value
}

func (m *AuthorizationService) rememberChallenge(code string, c challenge) {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.challenges[code] = c
}

func (m *AuthorizationService) takeChallenge(code string) (challenge, bool) {
	m.mux.Lock()
	defer m.mux.Unlock()
	issued, ok := m.challenges[code]
	delete(m.challenges, code)
	return issued, ok
}
