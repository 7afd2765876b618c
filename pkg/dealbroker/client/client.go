// Package client talks to the brokerage REST API: it loads listings into a
// Store, submits inquiries and leads, and performs the admin writes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cardealbroker/dealbroker/pkg/dealbroker/apperr"
	"github.com/cardealbroker/dealbroker/pkg/dealbroker/logging"
	"github.com/cardealbroker/dealbroker/pkg/dealbroker/validation"
)

// DefaultTimeout matches the timeout of the web frontend's API client.
const DefaultTimeout = 15 * time.Second

// Client is safe for concurrent use.
type Client struct {
	baseURL  string
	http     *http.Client
	log      *slog.Logger
	validate *validation.Validator
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for failed calls.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithTimeout overrides DefaultTimeout. A client passed to WithHTTPClient
// is copied, not modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

// New returns a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		http:     &http.Client{Timeout: DefaultTimeout},
		log:      logging.Discard(),
		validate: validation.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError is returned when the server answered with a non-2xx status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Detail)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// TransportError is returned when the request did not complete.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Outcome is what the UI shows for a finished call.
type Outcome struct {
	OK      bool
	Message string
}

// OutcomeOf collapses any error class into a success flag and a message.
func OutcomeOf(err error, success string) Outcome {
	if err == nil {
		return Outcome{OK: true, Message: success}
	}
	var (
		statusErr    *StatusError
		transportErr *TransportError
		appErr       *apperr.Error
	)
	switch {
	case errors.As(err, &appErr) && appErr.Code == apperr.CodeValidation:
		return Outcome{Message: "Please check the form: " + appErr.Message}
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests:
		return Outcome{Message: "Too many requests. Please wait a moment and try again."}
	case errors.As(err, &statusErr):
		return Outcome{Message: "The request was rejected. Please try again later."}
	case errors.As(err, &transportErr):
		return Outcome{Message: "We could not reach the server. Please try again later."}
	}
	return Outcome{Message: "Something went wrong. Please try again later."}
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}
	return c.do(ctx, method, path, "application/json", body, out)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed", "method", method, "path", path, "error", err)
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Detail: readDetail(resp.Body)}
		c.log.Warn("request rejected", "method", method, "path", path, "status", resp.StatusCode, "detail", statusErr.Detail)
		return statusErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Method: method, Path: path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// readDetail extracts {"detail": "..."} from an error body when present.
func readDetail(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(b) == 0 {
		return ""
	}
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(b, &body); err != nil || len(body.Detail) == 0 {
		return strings.TrimSpace(string(b))
	}
	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return s
	}
	return string(body.Detail)
}
