// Package backend is the single chokepoint for calls to the GateLink REST
// API: base URL handling, bearer token injection and the global 401 logout
// policy live here and nowhere else.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource yields the current bearer token. An empty token means the
// request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// Config holds configuration for the backend client.
type Config struct {
	// BaseURL of the backend, e.g. https://api.gatelink.example. Required.
	BaseURL string

	// HTTPClient executes requests. Defaults to an http.Client with a 15s
	// timeout. The adapter itself adds no retry or backoff policy.
	HTTPClient HTTPDoer

	// TokenSource provides the bearer token, read at call time from the
	// in-memory session state. Optional.
	TokenSource TokenSource

	// OnUnauthorized runs before any 401 response is surfaced to the
	// caller. Wired to the session store's logout so that an
	// unauthenticated response anywhere forcibly ends the session.
	OnUnauthorized func()

	Logger zerolog.Logger
}

// Client is the backend REST API client.
type Client struct {
	baseURL        string
	httpClient     HTTPDoer
	tokens         TokenSource
	onUnauthorized func()
	logger         zerolog.Logger
}

// New creates a backend client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient:     httpClient,
		tokens:         cfg.TokenSource,
		onUnauthorized: cfg.OnUnauthorized,
		logger:         cfg.Logger,
	}
}

// APIError is a non-2xx response from the backend, uninterpreted beyond
// decoding the error envelope.
type APIError struct {
	StatusCode int
	Message    string
	Reason     string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("backend: %d %s (%s)", e.StatusCode, e.Message, e.Reason)
	}
	return fmt.Sprintf("backend: %d %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// errorEnvelope is the backend's error body shape.
type errorEnvelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

// Get issues a GET request and decodes the 2xx JSON body into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST request with a JSON body and decodes the 2xx JSON
// response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := "req_" + uuid.New().String()[:22]
	req.Header.Set("X-Request-Id", requestID)

	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Global policy: any 401 ends the session before the caller sees
		// its own error.
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return c.apiError(resp, requestID)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.apiError(resp, requestID)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// apiError builds an APIError from a non-2xx response.
func (c *Client) apiError(resp *http.Response, requestID string) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
		RequestID:  requestID,
	}
	var envelope errorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		if envelope.Message != "" {
			apiErr.Message = envelope.Message
		}
		apiErr.Reason = envelope.Reason
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Str("reason", apiErr.Reason).
		Msg("backend request failed")
	return apiErr
}
