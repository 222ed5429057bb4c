// Package api provides HTTP submit and code exchange operations speaking the
// form envelope: {"success": bool, "message": string, "errors": {field: [msg]}}.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/viant/afs/url"
	"github.com/viant/authflow/codeflow"
	"github.com/viant/authflow/form"
)

// maxBody bounds the response body read
const maxBody = 1 << 20

// Client posts JSON to a data API
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Header     http.Header
}

// New creates a client
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{BaseURL: baseURL, HTTPClient: httpClient}
}

// exchangeRequest is posted to the code exchange endpoint
type exchangeRequest struct {
	Code   string `json:"code"`
	Locale string `json:"locale"`
}

// envelope treats a 2xx body without "success" as successful
type envelope struct {
	Success *bool            `json:"success"`
	Message string           `json:"message"`
	Errors  form.FieldErrors `json:"errors"`
}

// Submit returns a form submit operation posting values to path
func Submit[T any](client *Client, path string) form.SubmitFunc[T] {
	return func(ctx context.Context, values T) (*form.Envelope, error) {
		return client.Post(ctx, path, values)
	}
}

// Exchange returns a code handler posting {code, locale} to path
func (c *Client) Exchange(path string) codeflow.Handler {
	return func(ctx context.Context, code, locale string) error {
		result, err := c.Post(ctx, path, &exchangeRequest{Code: code, Locale: locale})
		if err != nil {
			return err
		}
		return result.Err()
	}
}

// Post sends payload as JSON and decodes the envelope. A non-2xx status carrying an
// envelope returns *form.ServerError.
func (c *Client) Post(ctx context.Context, path string, payload interface{}) (*form.Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range c.Header {
		for _, value := range values {
			request.Header.Add(key, value)
		}
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	response, err := httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to post %v: %w", path, err)
	}
	defer response.Body.Close()
	body, err := io.ReadAll(io.LimitReader(response.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		if serverErr := form.DecodeError(body); serverErr != nil {
			return nil, serverErr
		}
		return nil, fmt.Errorf("unexpected status %v from %v", response.StatusCode, path)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return &form.Envelope{Success: true}, nil
	}
	decoded := &envelope{}
	if err = json.Unmarshal(body, decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &form.Envelope{
		Success: decoded.Success == nil || *decoded.Success,
		Message: decoded.Message,
		Errors:  decoded.Errors,
	}, nil
}

func (c *Client) endpoint(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") || c.BaseURL == "" {
		return path
	}
	return url.Join(strings.TrimRight(c.BaseURL, "/"), strings.TrimLeft(path, "/"))
}
