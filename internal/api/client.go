// Package api is the HTTP client for the remote transactions service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/remmiculous/transaction-insights-dashboard/internal/common"
	"github.com/remmiculous/transaction-insights-dashboard/internal/metrics"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// ClientConfig configures the transport client.
type ClientConfig struct {
	Headers  map[string]string
	OAuth    *clientcredentials.Config
	BaseURL  string
	Token    string
	Timeout  time.Duration
	PageSize int
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Timeout is
// overwritten with the configured request timeout.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records request metrics.
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// Client wraps outbound HTTP calls: base URL, timeout, default headers,
// and normalization of failures into *TransportError.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
	headers    http.Header
	timeout    time.Duration
	pageSize   int
}

// NewClient creates a transport client.
func NewClient(cfg ClientConfig, opts ...ClientOption) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base URL %q: %w", common.ErrInvalidConfig, cfg.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("%w: base URL must be http(s), got %q", common.ErrInvalidConfig, cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", "application/json")
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}

	c := &Client{
		baseURL:  base,
		headers:  headers,
		timeout:  timeout,
		pageSize: pageSize,
		logger:   common.DiscardLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = newAuthClient(cfg)
	}
	c.httpClient.Timeout = timeout

	return c, nil
}

// newAuthClient builds an HTTP client that attaches credentials when
// configured. OAuth client credentials take precedence over a static token.
func newAuthClient(cfg ClientConfig) *http.Client {
	ctx := context.Background()
	switch {
	case cfg.OAuth != nil && cfg.OAuth.ClientID != "":
		return cfg.OAuth.Client(ctx)
	case cfg.Token != "":
		return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
	default:
		return &http.Client{}
	}
}

// PageSize returns the number of records requested per page.
func (c *Client) PageSize() int {
	return c.pageSize
}

// Get issues a GET for path with query and decodes the JSON body into out.
// Every failure is returned as a *TransportError.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL.JoinPath(path)
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return &TransportError{Err: err, Message: err.Error()}
	}
	for k, values := range c.headers {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	c.logger.Debug("Requesting transactions API",
		"path", path,
		"query", u.RawQuery)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordRequest(path, 0, time.Since(start).Seconds())
		return c.normalizeError(err)
	}
	defer resp.Body.Close()
	c.metrics.RecordRequest(path, resp.StatusCode, time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseErrorResponse(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &TransportError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("failed to decode response: %v", err),
			Err:        err,
		}
	}

	c.logger.Debug("Transactions API responded",
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	return nil
}

// normalizeError converts a failed round trip into a *TransportError.
func (c *Client) normalizeError(err error) *TransportError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &TransportError{
			Message: fmt.Sprintf("timeout of %dms exceeded", c.timeout.Milliseconds()),
			Err:     errors.Join(common.ErrTimeout, err),
		}
	}
	if errors.Is(err, context.Canceled) {
		return &TransportError{Message: "request canceled", Err: err}
	}

	msg := err.Error()
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		msg = urlErr.Err.Error()
	}
	return &TransportError{Message: msg, Err: err}
}

// parseErrorResponse extracts the server-provided message from an error
// response. The body's "message" field wins, then "error", then the status
// text, then a fixed fallback.
func parseErrorResponse(resp *http.Response) *TransportError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var errResp struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(body, &errResp); err == nil {
		msg = strings.TrimSpace(errResp.Message)
		if msg == "" {
			msg = strings.TrimSpace(errResp.Error)
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("Request failed with status code %d", resp.StatusCode)
	}

	return &TransportError{
		StatusCode: resp.StatusCode,
		Message:    msg,
		Body:       string(body),
	}
}
