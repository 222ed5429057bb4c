package mock

import (
	"net/http/httptest"

	"github.com/viant/afs/url"
	"golang.org/x/oauth2"
)

// HTTPTestAuthorizationServer runs an AuthorizationService on httptest
type HTTPTestAuthorizationServer struct {
	*AuthorizationService
	Server *httptest.Server
	Issuer string
}

// NewHTTPTestAuthorizationServer starts a mock authorization server
func NewHTTPTestAuthorizationServer(opts ...Option) (*HTTPTestAuthorizationServer, error) {
	service, err := NewAuthorizationService(opts...)
	if err != nil {
		return nil, err
	}
	server := &HTTPTestAuthorizationServer{AuthorizationService: service}
	server.Server = httptest.NewServer(service.Handler())
	service.Issuer = server.Server.URL
	server.Issuer = server.Server.URL
	return server, nil
}

// ClientConfig returns an oauth2 config matching the server's client
func (s *HTTPTestAuthorizationServer) ClientConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.ClientID,
		ClientSecret: s.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   url.Join(s.Issuer, "authorize"),
			TokenURL:  url.Join(s.Issuer, "token"),
			AuthStyle: oauth2.AuthStyleInHeader,
		},
		Scopes: s.AuthorizedScopes,
	}
}

func (s *HTTPTestAuthorizationServer) Close() {
	if s.Server != nil {
		s.Server.Close()
	}
	s.Server = nil
}
