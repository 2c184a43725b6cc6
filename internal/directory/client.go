// Package directory talks to the external user-management REST API that owns
// user accounts. The service proxies it and never stores records itself.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// User is a directory record as the remote API returns it.
type User struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Gender string `json:"gender"`
	Status string `json:"status"`
}

// NewUser is the creation payload forwarded verbatim to the directory.
type NewUser struct {
	Name   string `json:"name"`
	Gender string `json:"gender"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

// StatusError reports a non-success directory response. Detail carries the
// upstream body verbatim so callers can relay it.
type StatusError struct {
	Status int
	Detail json.RawMessage
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("directory responded %d", e.Status)
}

// Client calls the external directory with a bearer credential. All calls
// are single-shot: failures surface immediately, nothing is retried.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// ClientOption configures optional Client behavior.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client (tests, custom timeouts).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a directory client for the given base URL and credential.
func NewClient(baseURL, token string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:      strings.TrimSpace(token),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an access credential is present.
func (c *Client) Configured() bool {
	return c != nil && c.token != ""
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
}

// ListByEmail returns directory records matching the email exactly.
// Case-sensitivity is whatever the directory implements.
func (c *Client) ListByEmail(ctx context.Context, email string) ([]User, error) {
	endpoint := c.baseURL + "/users?email=" + url.QueryEscape(email)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newStatusError(resp)
	}

	var users []User
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return users, nil
}

// Create forwards a user-creation payload and returns whatever record the
// directory assigned, notably the generated id.
func (c *Client) Create(ctx context.Context, u NewUser) (User, error) {
	body, err := json.Marshal(u)
	if err != nil {
		return User{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users", bytes.NewReader(body))
	if err != nil {
		return User{}, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return User{}, fmt.Errorf("directory request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return User{}, newStatusError(resp)
	}

	var created User
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return User{}, fmt.Errorf("decode response: %w", err)
	}
	return created, nil
}

func newStatusError(resp *http.Response) *StatusError {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if !json.Valid(detail) {
		detail = nil
	}
	return &StatusError{Status: resp.StatusCode, Detail: detail}
}
