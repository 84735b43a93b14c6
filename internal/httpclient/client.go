// Package httpclient issues single authenticated requests against the job-board API
// and normalizes their outcome into a status plus a raw JSON body.
// It never retries and never refreshes; see package auth for that.
package httpclient

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

	"github.com/bassista/jobsync/internal/apierror"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	maxResponseBytes = 10 << 20
	RequestIDHeader  = "X-Request-ID"
)

// TokenSource supplies the current bearer token; "" means none.
type TokenSource interface {
	Get() string
}

// Request describes one call relative to the client's base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// SkipRefresh marks calls that must never trigger a token refresh (login, refresh itself).
	SkipRefresh bool
}

func (r Request) String() string {
	return r.Method + " " + r.Path
}

// Response is the normalized outcome of a request that reached the server.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r *Response) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return errors.New("empty response body")
	}
	return json.Unmarshal(r.Body, v)
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	newID   func() string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its transport is used as-is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the transport-level timeout for a whole exchange.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

func New(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	if tokens == nil {
		return nil, errors.New("token source is nil")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Transport: NewLoggingTransport(nil)},
		tokens:  tokens,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

// Do performs req. A nil error means a response was received, whatever its status.
// Transport failures are returned as apierror KindNetwork.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	op := req.String()
	if !strings.HasPrefix(req.Path, "/") {
		return nil, fmt.Errorf("%s: path must start with '/'", op)
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode body: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set(RequestIDHeader, c.newID())
	if tok := c.tokens.Get(); tok != "" {
		(&oauth2.Token{AccessToken: tok}).SetAuthHeader(httpReq)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, apierror.Network(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, apierror.Network(op, fmt.Errorf("read body: %w", err))
	}
	if len(raw) > maxResponseBytes {
		return nil, apierror.Parse(op, fmt.Errorf("response larger than %d bytes", maxResponseBytes))
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: raw}, nil
}
