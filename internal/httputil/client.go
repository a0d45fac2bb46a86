// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pdiddy/ala-agent/internal/failure"
	"github.com/pdiddy/ala-agent/pkg/types"
)

// DefaultBaseURL is the ALA API gateway.
const DefaultBaseURL = "https://api.ala.org.au"

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "ala-agent/0.1"
	maxErrorBody     = 512
)

// Fetcher performs a GET and decodes the JSON body into out. Failures are
// *failure.Error values of KindNetwork or KindTimeout; a valid empty body
// is not a failure.
type Fetcher interface {
	GetJSON(ctx context.Context, rawURL string, out any) error
}

// StatusError carries a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return http.StatusText(e.Code)
	}
	return e.Body
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// Client is the Fetcher used against the ALA gateway.
type Client struct {
	HTTP       *http.Client
	UserAgent  string
	MaxRetries int
	Timeout    time.Duration
}

// NewClient builds a Client from cfg, applying defaults.
func NewClient(cfg types.HTTPConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &Client{
		HTTP:       &http.Client{Timeout: timeout},
		UserAgent:  ua,
		MaxRetries: cfg.MaxRetries,
		Timeout:    timeout,
	}
}

// GetJSON implements Fetcher.
func (c *Client) GetJSON(ctx context.Context, rawURL string, out any) error {
	op := "GET " + redact(rawURL)

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return failure.New(failure.KindNetwork, op, "invalid request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := DoWithRetry(ctx, c.HTTP, req, c.MaxRetries)
	if err != nil {
		return failure.FromTransport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return failure.New(failure.KindNetwork, op,
			fmt.Sprintf("HTTP %d", resp.StatusCode), &StatusError{Code: resp.StatusCode, Body: string(body)})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure.FromTransport(op, err)
	}
	if len(body) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return failure.New(failure.KindAdapter, op, "unexpected response body", err)
	}
	return nil
}

func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Redacted()
}

// Endpoint joins base and path and encodes query.
func Endpoint(base, path string, query url.Values) string {
	if base == "" {
		base = DefaultBaseURL
	}
	u := trimSlash(base) + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
