// Package restclient is a small JSON-over-HTTP client shared by the model
// providers and the CLI.
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxResponseBytes bounds how much of a provider response is read.
const maxResponseBytes = 32 << 20

// Client sends JSON requests to a base URL with fixed headers.
type Client struct {
	baseURL    string
	headers    map[string]string
	httpClient *http.Client
}

// New returns a client for baseURL. headers are sent with every request.
func New(baseURL string, headers map[string]string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		headers:    headers,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// StatusError is returned by PostJSON for non-2xx responses. Body holds the
// raw response for logging; it is never shown to end users.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

func (c *Client) setHeaders(req *http.Request, contentType string, headers map[string]string) {
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
}

// Do sends body with the given method and content type and returns the raw
// response body and status.
func (c *Client) Do(ctx context.Context, method, endpoint string, body io.Reader, contentType string, headers map[string]string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, 0, err
	}
	c.setHeaders(req, contentType, headers)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	return data, resp.StatusCode, err
}

// Post sends body as JSON to endpoint and returns the raw response body and status.
func (c *Client) Post(ctx context.Context, endpoint string, body any, headers map[string]string) ([]byte, int, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}
	return c.Do(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody), "application/json", headers)
}

// PostJSON posts body and decodes a 2xx response into out. Other statuses
// return a *StatusError.
func (c *Client) PostJSON(ctx context.Context, endpoint string, body, out any, headers map[string]string) error {
	data, status, err := c.Post(ctx, endpoint, body, headers)
	if err != nil {
		return err
	}
	return decode(data, status, out)
}

// GetJSON fetches endpoint and decodes a 2xx response into out.
func (c *Client) GetJSON(ctx context.Context, endpoint string, out any) error {
	data, status, err := c.Do(ctx, http.MethodGet, endpoint, nil, "", nil)
	if err != nil {
		return err
	}
	return decode(data, status, out)
}

// DeleteJSON sends a DELETE and decodes a 2xx response into out.
func (c *Client) DeleteJSON(ctx context.Context, endpoint string, out any) error {
	data, status, err := c.Do(ctx, http.MethodDelete, endpoint, nil, "", nil)
	if err != nil {
		return err
	}
	return decode(data, status, out)
}

func decode(data []byte, status int, out any) error {
	if status < 200 || status > 299 {
		return &StatusError{StatusCode: status, Body: string(data)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
