package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/authflow/form"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func newServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		values := credentials{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&values))
		switch values.Password {
		case "secret":
			_, _ = w.Write([]byte(`{"success":true,"message":"welcome"}`))
		case "locked":
			_, _ = w.Write([]byte(`{"success":false,"message":"account locked"}`))
		case "weak":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"success":false,"errors":{"password":["too weak"]}}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`bad gateway`))
		}
	})
	mux.HandleFunc("/auth/google", func(w http.ResponseWriter, r *http.Request) {
		request := exchangeRequest{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		if request.Code == "abc" && request.Locale == "en" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid code"}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestSubmit(t *testing.T) {
	server := newServer(t)
	client := New(server.URL+"/", nil)
	submit := Submit[credentials](client, "/login")

	testCases := []struct {
		description   string
		password      string
		expectSuccess bool
		expectServer  *form.ServerError
		expectErr     bool
	}{
		{description: "success", password: "secret", expectSuccess: true},
		{description: "rejected envelope", password: "locked", expectServer: &form.ServerError{Message: "account locked"}},
		{description: "field errors", password: "weak", expectErr: true, expectServer: &form.ServerError{Errors: form.FieldErrors{"password": {"too weak"}}}},
		{description: "unstructured", password: "other", expectErr: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			envelope, err := submit(context.Background(), credentials{Email: "user@example.com", Password: testCase.password})
			if testCase.expectErr {
				require.Error(t, err)
				var serverErr *form.ServerError
				if testCase.expectServer != nil {
					require.True(t, errors.As(err, &serverErr))
					assert.Equal(t, testCase.expectServer, serverErr)
				} else {
					assert.False(t, errors.As(err, &serverErr))
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.expectSuccess, envelope.Success)
			if testCase.expectServer != nil {
				assert.Equal(t, testCase.expectServer, envelope.Err())
			}
		})
	}
}

func TestClient_Exchange(t *testing.T) {
	server := newServer(t)
	handler := New(server.URL, server.Client()).Exchange("auth/google")
	assert.NoError(t, handler(context.Background(), "abc", "en"))

	err := handler(context.Background(), "bad", "en")
	var serverErr *form.ServerError
	require.True(t, errors.As(err, &serverErr))
	assert.Equal(t, "invalid code", serverErr.Message)
}
