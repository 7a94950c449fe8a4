// Package remote is the JSON-over-HTTP plumbing shared by the identity and resource service clients.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 8 << 20
	// maxMessageBytes caps error messages taken from unstructured bodies.
	maxMessageBytes = 256
)

// StatusError is returned when a remote call completes with a non-success answer.
type StatusError struct {
	Service string
	Op      string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s failed status=%d", e.Service, e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %s failed status=%d: %s", e.Service, e.Op, e.Status, e.Message)
}

// IsNotFound reports whether err is a StatusError with status 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == http.StatusNotFound
}

// Client issues JSON requests against one service base URL.
type Client struct {
	Service    string
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// New returns a Client for service rooted at baseURL. token, when set, is sent as a Bearer token.
func New(service, baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		Service:    service,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Request describes one call.
type Request struct {
	Op     string
	Method string
	Path   string
	Body   any
	Header http.Header
}

// Do performs req and returns the response body of a 2xx answer.
// Transport failures are returned wrapped; non-2xx answers become *StatusError.
func (c *Client) Do(ctx context.Context, req Request) ([]byte, error) {
	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: encode body: %w", c.Service, req.Op, err)
		}
		body = bytes.NewReader(raw)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.BaseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", c.Service, req.Op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.Token)
	}
	for k, vals := range req.Header {
		for _, v := range vals {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", c.Service, req.Op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: %s: read body: %w", c.Service, req.Op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Service: c.Service,
			Op:      req.Op,
			Status:  resp.StatusCode,
			Message: ErrorMessage(raw),
		}
	}
	return raw, nil
}

// ErrorMessage extracts a human readable message from an error body ({"message"} or {"error"}),
// falling back to the trimmed body text.
func ErrorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		switch e := body.Error.(type) {
		case string:
			return e
		case map[string]any:
			if m, ok := e["message"].(string); ok {
				return m
			}
		}
	}
	return truncate(strings.TrimSpace(string(raw)), maxMessageBytes)
}

// truncate shortens s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
