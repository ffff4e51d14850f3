// Package openlibrary provides a rate-limited client for the Open Library
// search API, normalizing its documents to canonical domain Books.
package openlibrary

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public Open Library search endpoint.
	DefaultBaseURL = "https://openlibrary.org/search.json"

	// Open Library asks for no more than ~1 request per second sustained.
	defaultRPS   = 1.0
	defaultBurst = 3

	defaultTimeout = 10 * time.Second

	// MaxResults caps a single search; the upstream orders most-relevant-first.
	MaxResults = 20
)

// Client is a rate-limited Open Library API client.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	baseURL string
	logger  *slog.Logger
}

// Options configures the client.
type Options struct {
	BaseURL string        // Search endpoint (defaults to DefaultBaseURL)
	Timeout time.Duration // Per-request timeout (defaults to 10s)
	Logger  *slog.Logger  // Logger for requests (discards if nil)
}

// New creates a new Open Library client.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		http: &http.Client{
			Timeout: opts.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRPS), defaultBurst),
		baseURL: opts.BaseURL,
		logger:  logger,
	}
}

// doRequest executes a rate-limited GET against the search endpoint.
func (c *Client) doRequest(ctx context.Context, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Marginalia/1.0")

	c.logger.Debug("open library request", "query", query.Get("q"))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusBadRequest:
		return nil, ErrBadRequest
	default:
		if resp.StatusCode >= 500 {
			return nil, ErrServer
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
}
