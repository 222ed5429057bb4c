package console

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/authflow/identity/browser"
	"github.com/viant/authflow/identity/mock"
	"github.com/viant/authflow/loader"
)

// followOpener visits the authorization URL and follows the redirect back to the loopback endpoint
var followOpener = browser.OpenerFunc(func(URL string) error {
	resp, err := http.Get(URL)
	if err != nil {
		return err
	}
	return resp.Body.Close()
})

func TestService_SignIn(t *testing.T) {
	server, err := mock.NewHTTPTestAuthorizationServer(mock.WithClient("console", ""))
	require.NoError(t, err)
	defer server.Close()

	tokenFile := filepath.Join(t.TempDir(), "tokens.json")
	options := &Options{Issuer: server.Issuer, ClientID: "console", Scope: "openid", TokenFile: tokenFile}
	out := &bytes.Buffer{}
	service, err := New(context.Background(), options, out,
		WithLoaderFactory(loader.New),
		WithBrowserOptions(browser.WithOpener(followOpener)))
	require.NoError(t, err)
	defer service.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, service.SignIn(ctx, nil))
	require.NotNil(t, service.Token())
	assert.Equal(t, "Bearer", service.Token().TokenType)
	assert.Contains(t, out.String(), "redirect: /")
	assert.Contains(t, out.String(), "subject: test_subject")
	assert.Equal(t, 1, server.MetadataRequests())

	// a second run reuses the cached token without opening the browser
	cachedOut := &bytes.Buffer{}
	cached, err := New(context.Background(), options, cachedOut,
		WithLoaderFactory(loader.New),
		WithBrowserOptions(browser.WithOpener(browser.OpenerFunc(func(URL string) error {
			t.Errorf("unexpected browser open: %v", URL)
			return nil
		}))))
	require.NoError(t, err)
	defer cached.Close()
	require.NoError(t, cached.SignIn(ctx, nil))
	assert.Contains(t, cachedOut.String(), "using cached token")
	assert.Equal(t, service.Token().AccessToken, cached.Token().AccessToken)
	assert.Equal(t, 1, server.MetadataRequests())
}

func TestService_SignInDenied(t *testing.T) {
	server, err := mock.NewHTTPTestAuthorizationServer(mock.WithClient("console", ""), mock.WithDeny("access_denied"))
	require.NoError(t, err)
	defer server.Close()

	out := &bytes.Buffer{}
	service, err := New(context.Background(), &Options{Issuer: server.Issuer, ClientID: "console"}, out,
		WithLoaderFactory(loader.New),
		WithBrowserOptions(browser.WithOpener(followOpener)))
	require.NoError(t, err)
	defer service.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, service.SignIn(ctx, nil))
	assert.Nil(t, service.Token())
	assert.Contains(t, out.String(), "sign-in cancelled")
	assert.NotContains(t, out.String(), "redirect:")
}

func TestService_Login(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credentials := Credentials{}
		_ = json.NewDecoder(r.Body).Decode(&credentials)
		if credentials.Password == "secret" {
			_, _ = w.Write([]byte(`{"success":true}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"invalid email or password"}`))
	}))
	defer api.Close()

	out := &bytes.Buffer{}
	service, err := New(context.Background(), &Options{Issuer: "https://accounts.example.com", APIBaseURL: api.URL}, out,
		WithLoaderFactory(loader.New))
	require.NoError(t, err)
	defer service.Close()

	require.NoError(t, service.Login(context.Background(), "user@example.com", "secret"))
	assert.Contains(t, out.String(), "redirect: /")

	err = service.Login(context.Background(), "user@example.com", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email or password")

	err = service.Login(context.Background(), "not-an-email", "secret")
	require.Error(t, err)
	assert.Contains(t, out.String(), "email: [invalid email]")
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(context.Background(), &Options{}, &bytes.Buffer{}, WithLoaderFactory(loader.New))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "issuer or oauth2_config_url is required")
}
