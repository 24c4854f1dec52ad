// Package api is the shared REST client for the storefront collaborators.
// It attaches the bearer credential, bounds every call with a timeout,
// maps transport failures to the retryable NetworkError, and reports any
// 401 to the session layer before surfacing it.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/batuhanyalcin/storefront/internal/metrics"
	"golang.org/x/time/rate"
)

const DefaultTimeout = 30 * time.Second

// TokenSource supplies the current bearer value, empty when anonymous.
type TokenSource interface {
	Token() string
}

// Invalidator receives the process-wide session invalidation when a
// collaborator answers 401.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	// Requests per second against the collaborator; zero disables limiting.
	RateLimit float64

	Tokens     TokenSource
	Session    Invalidator
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
	Log        *slog.Logger
}

type Client struct {
	base    string
	timeout time.Duration
	http    *http.Client
	tokens  TokenSource
	session Invalidator
	limiter *rate.Limiter
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), int(opts.RateLimit)+1)
	}

	return &Client{
		base:    strings.TrimRight(opts.BaseURL, "/"),
		timeout: opts.Timeout,
		http:    opts.HTTPClient,
		tokens:  opts.Tokens,
		session: opts.Session,
		limiter: limiter,
		metrics: opts.Metrics,
		log:     opts.Log,
	}
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPut, path, in, out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &NetworkError{Op: method + " " + path, Err: err}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(method, "network_error", start)
		return &NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.observe(method, "unauthorized", start)
		if c.session != nil {
			c.session.Invalidate(ctx)
		}
		return fmt.Errorf("%s %s: %w", method, path, ErrAuthExpired)
	}

	if resp.StatusCode >= 400 {
		c.observe(method, "error", start)
		return &StatusError{
			Code:    resp.StatusCode,
			Message: readMessage(resp.Body),
		}
	}

	c.observe(method, "ok", start)

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) observe(method, outcome string, start time.Time) {
	if c.metrics != nil {
		c.metrics.ObserveCollaborator(method, outcome, time.Since(start))
	}
}

// readMessage pulls the server's {"message": ...} detail when present.
func readMessage(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 8<<10))
	if err != nil {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(b, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(b))
}
