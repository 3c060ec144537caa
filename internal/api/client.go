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

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Requester is the transport surface the resource clients depend on.
// It is implemented by *Client and can be faked in tests.
type Requester interface {
	Do(ctx context.Context, method, path string, query url.Values, body, dest any) error
}

// Ensure Client implements Requester at compile time.
var _ Requester = (*Client)(nil)

// TokenSource yields the bearer token attached to outgoing requests.
// An empty token means the request is sent unauthenticated.
type TokenSource interface {
	Token() string
}

// Client talks to the marketplace REST backend.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	tokens    TokenSource
	limiter   *rate.Limiter
	log       zerolog.Logger
}

const (
	defaultBaseURL   = "localhost:3000"
	defaultUserAgent = "emarket/0.1"
	defaultTimeout   = 8 * time.Second
	maxErrorBody     = 4 << 10
)

// Option customizes a Client.
type Option func(*Client)

// WithTimeout sets the fixed per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient swaps the underlying *http.Client. The configured timeout
// is kept unless the supplied client sets its own.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc == nil {
			return
		}
		if hc.Timeout == 0 {
			hc.Timeout = c.http.Timeout
		}
		c.http = hc
	}
}

// WithTokenSource attaches bearer tokens from src.
func WithTokenSource(src TokenSource) Option {
	return func(c *Client) { c.tokens = src }
}

// WithRateLimit caps outgoing requests per second. Zero disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			burst := int(perSecond)
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if s := strings.TrimSpace(ua); s != "" {
			c.userAgent = s
		}
	}
}

// New builds a Client for baseURL, which may omit the scheme.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: defaultTimeout},
		userAgent: defaultUserAgent,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized backend address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Do performs one request. A nil body sends no payload and a nil dest
// discards the response body.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	rel := &url.URL{Path: path}
	if len(query) > 0 {
		rel.RawQuery = query.Encode()
	}
	reqURL := c.baseURL.ResolveReference(rel)

	var payload io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), payload)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Str("method", method).Str("path", rel.String()).Err(err).Msg("request failed")
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug().
		Str("method", method).
		Str("path", rel.String()).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request")

	if resp.StatusCode >= 400 {
		return newStatusError(method, rel.String(), resp)
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
