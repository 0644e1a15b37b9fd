// Package apiclient is the REST client for the learning backend. Every call
// returns either the decoded success body or an *errors.APIError.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/windfall/sprache/internal/config"
	"github.com/windfall/sprache/internal/errors"
	"github.com/windfall/sprache/internal/session"
)

const defaultTimeout = 30 * time.Second

// Client issues requests against one backend base URL.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  session.TokenSource
	log     zerolog.Logger

	Auth     *AuthService
	Speaking *SpeakingService
	Podcasts *PodcastService
	Words    *WordService
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates a client for baseURL. tokens may be nil, in which case no request
// carries a bearer credential.
func New(baseURL string, tokens session.TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		tokens:  tokens,
		log:     zerolog.Nop(),
	}
	if c.baseURL == "" {
		c.baseURL = config.DefaultAPIURL
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Auth = &AuthService{c: c}
	c.Speaking = &SpeakingService{c: c}
	c.Podcasts = &PodcastService{c: c}
	c.Words = &WordService{c: c}
	return c
}

// NewFromConfig creates a client from the loaded configuration.
func NewFromConfig(cfg *config.Config, tokens session.TokenSource, log zerolog.Logger) *Client {
	return New(cfg.BaseURL(), tokens, WithTimeout(cfg.APITimeout), WithLogger(log))
}

// BaseURL returns the resolved backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes one call. Exactly one of body and form may be set.
type request struct {
	method string
	path   string
	query  url.Values
	body   any
	form   *form
	// public requests never carry a bearer credential.
	public bool
	// fallback is the message used when an error body has no recognizable field.
	fallback string
}

// Do performs an authorized JSON request and decodes a 2xx body into out.
// out may be nil to discard the body, or *json.RawMessage to keep it verbatim.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.do(ctx, request{method: method, path: path, query: query, body: body}, out)
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s %s: %w", r.method, r.path, ctx.Err())
		}
		c.log.Warn().Err(err).Str("method", r.method).Str("path", r.path).Msg("Backend unreachable")
		return errors.TransportFailure(c.baseURL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s %s: %w", r.method, r.path, ctx.Err())
		}
		return errors.MalformedResponse(resp.StatusCode, fmt.Errorf("failed to read response body: %w", err))
	}

	event := c.log.Debug()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		event = c.log.Warn()
	}
	event.
		Str("method", r.method).
		Str("path", r.path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("API request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.HTTPFailure(resp.StatusCode, raw, r.fallback)
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return errors.MalformedResponse(resp.StatusCode, fmt.Errorf("empty response body"))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.MalformedResponse(resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, r request) (*http.Request, error) {
	u := c.baseURL + r.path
	if encoded := r.query.Encode(); encoded != "" {
		u += "?" + encoded
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case r.form != nil:
		buf, ct, err := r.form.encode()
		if err != nil {
			return nil, err
		}
		// The multipart writer owns the content type so the boundary matches the body.
		body, contentType = buf, ct
	case r.body != nil:
		b, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body, contentType = bytes.NewReader(b), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	if !r.public {
		if err := c.authorize(ctx, req); err != nil {
			return nil, err
		}
	}
	return req, nil
}

// authorize attaches the bearer header when a token is present and leaves the
// header out entirely otherwise.
func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	if c.tokens == nil {
		return nil
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrSession, "failed to read session token", err)
	}
	if token == "" {
		return nil
	}
	(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	return nil
}

// params builds a query from key/value pairs, dropping empty values.
func params(kv ...string) url.Values {
	q := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			q.Set(kv[i], kv[i+1])
		}
	}
	return q
}

// positive renders n for a query, or "" when n is not set.
func positive(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// escape makes an id safe as a single path segment.
func escape(id string) string {
	return url.PathEscape(id)
}
