// Package api talks to the budget backend. Every call goes through Fetch,
// which attaches the stored bearer token and turns error envelopes into
// *APIError values.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	applog "budget/internal/log"
	"budget/internal/storage"
)

const userAgent = "budget-cli/1.0"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

type Client struct {
	baseURL    url.URL
	tokens     storage.TokenStore
	http       *http.Client
	noRedirect *http.Client
	logger     *applog.Logger
	timeout    time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying client. Its transport is still
// wrapped for request ids and logging.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		cp := *hc
		c.http = &cp
	}
}

// WithTimeout bounds each request. It applies after every other option, so
// it also holds for a client given through WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithLogger(l *applog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(baseURL string, tokens storage.TokenStore, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q must be http or https", baseURL)
	}
	if tokens == nil {
		return nil, errors.New("api client needs a token store")
	}

	c := &Client{
		baseURL: *u,
		tokens:  tokens,
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  applog.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		c.http.Timeout = c.timeout
	}
	c.logger = c.logger.WithComponent(applog.ComponentAPI)

	base := c.http.Transport
	if base == nil {
		base = newTransport()
	}
	c.http.Transport = &loggingTransport{base: base, logger: c.logger}

	nr := *c.http
	nr.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	c.noRedirect = &nr

	return c, nil
}

// RequestOptions describes one call. Method defaults to GET.
type RequestOptions struct {
	Method string
	Body   Body
	Header http.Header
	// NoRedirect returns 3xx responses as they are instead of following them.
	NoRedirect bool
}

// Response is a fully read HTTP response.
type Response struct {
	Status   int
	Location string
	Body     []byte
}

// Fetch performs an authenticated request. A 2xx response yields its JSON
// body, or nil when there is no content. Anything else yields *APIError.
func (c *Client) Fetch(ctx context.Context, path string, opts RequestOptions) (json.RawMessage, error) {
	resp, err := c.Do(ctx, path, opts)
	if err != nil {
		return nil, err
	}

	if resp.Status < 200 || resp.Status >= 300 {
		return nil, &APIError{Status: resp.Status, Message: errorMessage(resp.Status, resp.Body)}
	}
	if resp.Status == http.StatusNoContent || len(strings.TrimSpace(string(resp.Body))) == 0 {
		return nil, nil
	}
	if !json.Valid(resp.Body) {
		return nil, fmt.Errorf("%s %s: %w", methodOf(opts), path, ErrMalformedPayload)
	}
	return json.RawMessage(resp.Body), nil
}

// Do sends the request and reads the whole response without interpreting
// the status code.
func (c *Client) Do(ctx context.Context, path string, opts RequestOptions) (*Response, error) {
	req, err := c.newRequest(ctx, path, opts)
	if err != nil {
		return nil, err
	}

	hc := c.http
	if opts.NoRedirect {
		hc = c.noRedirect
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read body: %w", err)}
	}

	return &Response{
		Status:   resp.StatusCode,
		Location: resp.Header.Get("Location"),
		Body:     body,
	}, nil
}

func (c *Client) newRequest(ctx context.Context, path string, opts RequestOptions) (*http.Request, error) {
	var (
		body        io.Reader
		contentType string
	)
	if opts.Body != nil {
		r, ct, err := opts.Body.encode()
		if err != nil {
			return nil, err
		}
		body, contentType = r, ct
	}

	req, err := http.NewRequestWithContext(ctx, methodOf(opts), c.resolve(path), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	for k, vs := range opts.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if opts.Body != nil && opts.Body.isForm() {
		req.Header.Del("Content-Type")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	req.Header.Set("User-Agent", userAgent)

	token, ok, err := c.tokens.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read session token: %w", err)
	}
	if ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		req.Header.Del("Authorization")
	}

	return req, nil
}

// resolve appends path to the base URL path so deployments under a prefix
// keep working.
func (c *Client) resolve(path string) string {
	u := c.baseURL
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawPath = ""
	return u.String()
}

func methodOf(opts RequestOptions) string {
	if opts.Method == "" {
		return http.MethodGet
	}
	return opts.Method
}
