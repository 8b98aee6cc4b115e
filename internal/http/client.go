package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client wraps HTTP operations with tile-server specific configuration.
//
// Client provides:
//   - Configured User-Agent header
//   - Optional HTTP basic auth for protected imagery endpoints
//   - Timeout handling
//   - Typed status errors so callers can tell retryable failures apart
//
// Example usage:
//
//	client := NewClient(WithBasicAuth("user", "secret"))
//	data, err := client.Get(ctx, "https://tiles.example.com/14/100/200.jpg")
type Client struct {
	httpClient *http.Client
	userAgent  string
	username   string
	password   string
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithBasicAuth sends HTTP basic auth credentials with every request.
// An empty username disables auth.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// NewClient creates a new HTTP client for tile servers.
//
// The client is configured with:
//   - 60 second timeout
//   - "tilefetch" User-Agent header
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		userAgent: "tilefetch",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError is returned for any response other than 200 OK.
type StatusError struct {
	URL    string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s (%s)", e.Code, e.Status, e.URL)
}

// Temporary reports whether retrying the request may succeed: server errors
// and 429 Too Many Requests are temporary, other client errors are not.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

// Get performs a GET request and returns the response body as bytes.
//
// The request includes the configured User-Agent header and, when set, basic
// auth credentials.
//
// Returns an error if:
//   - The request fails
//   - The response status is not 200 OK (as *StatusError)
//   - Reading the body fails
//
// Example:
//
//	data, err := client.Get(ctx, "https://example.com/14/100/200.png")
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: url, Code: resp.StatusCode, Status: resp.Status}
	}

	return io.ReadAll(resp.Body)
}
