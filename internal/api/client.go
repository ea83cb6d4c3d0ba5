// ABOUTME: Backend HTTP client: construction, JSON request helper and response decoding
// ABOUTME: Anonymous calls (login, register) and bearer calls use separate transports

package api

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

	"go.uber.org/zap"

	"github.com/2389/legisbot/internal/credential"
)

// DefaultTimeout bounds every request when Options.Timeout is zero.
const DefaultTimeout = 60 * time.Second

// Options configures a Client.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	Credentials credential.Reader
	Logger      *zap.Logger
	// Transport overrides the base round tripper (tests).
	Transport http.RoundTripper
}

// Client talks to the legisbot backend.
type Client struct {
	baseURL string
	anon    *http.Client
	authed  *http.Client
	logger  *zap.Logger
}

// New creates a Client. Credentials may be nil, in which case only the
// anonymous endpoints work.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	reader := opts.Credentials
	if reader == nil {
		reader = credential.NewMemoryStore("")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	anon, authed := newTransports(opts.Transport, reader)
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		anon:    &http.Client{Transport: anon, Timeout: timeout},
		authed:  &http.Client{Transport: authed, Timeout: timeout},
		logger:  logger.Named("api"),
	}
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// doJSON sends body (if any) as JSON and decodes a 2xx response into out.
func (c *Client) doJSON(ctx context.Context, hc *http.Client, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s body: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), reader)
	if err != nil {
		return fmt.Errorf("building %s request: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(hc, req, out)
}

// do executes req and decodes the response.
func (c *Client) do(hc *http.Client, req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err),
		)
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", req.URL.Path, err)
	}
	return nil
}
