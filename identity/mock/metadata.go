package mock

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/viant/afs/url"
	"github.com/viant/mcp-protocol/oauth2/meta"
)

// defaultMetadataHandler serves the authorization server metadata document
func (m *AuthorizationService) defaultMetadataHandler(w http.ResponseWriter, _ *http.Request) {
	metadata := meta.AuthorizationServerMetadata{
		Issuer:                            m.Issuer,
		AuthorizationEndpoint:             url.Join(m.Issuer, "authorize"),
		TokenEndpoint:                     url.Join(m.Issuer, "token"),
		JSONWebKeySetURI:                  url.Join(m.Issuer, "jwks"),
		ScopesSupported:                   m.AuthorizedScopes,
		ResponseTypesSupported:            []string{"code"},
		GrantTypesSupported:               []string{"authorization_code"},
		TokenEndpointAuthMethodsSupported: []string{"client_secret_basic", "client_secret_post"},
		CodeChallengeMethodsSupported:     []string{"S256"},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(metadata)
}

// defaultJwksHandler exposes the server's public key
func (m *AuthorizationService) defaultJwksHandler(w http.ResponseWriter, _ *http.Request) {
	pubKey := m.PrivateKey.Public().(*rsa.PublicKey)
	kidBytes := make([]byte, 8)
	_, _ = rand.Read(kidBytes)
	jwk := meta.JSONWebKey{
		Kty: "RSA",
		Use: "sig",
		Alg: "RS256",
		Kid: base64.RawURLEncoding.EncodeToString(kidBytes),
		N:   base64.RawURLEncoding.EncodeToString(pubKey.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(new(big.Int).SetInt64(int64(pubKey.E)).Bytes()),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(meta.JSONWebKeySet{Keys: []meta.JSONWebKey{jwk}})
}
