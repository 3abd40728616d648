package sharesansar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"NepsePulse/internal/domain/models"
	"NepsePulse/internal/service/ratelimit"
	xhttp "NepsePulse/pkg/http"
	applogger "NepsePulse/pkg/logger"
)

const limiterKey = "sharesansar"

// Client scrapes market data pages from the exchange data site. It is
// the only component that reaches the upstream network; everything it
// returns is an opaque RawPayload for the normalizer.
type Client struct {
	baseURL  string
	http     *xhttp.Client
	limiter  *ratelimit.Limiter
	retryMax int
	backoff  Backoff
	capacity float64
	refill   float64
	logger   *applogger.Logger
}

// Option configures the Client.
type Option func(*Client)

// New creates an upstream client.
func New(baseURL, userAgent string, fetchTimeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http: xhttp.NewClient(
			xhttp.WithTimeout(fetchTimeout),
			xhttp.WithHeader("User-Agent", userAgent),
			xhttp.WithHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"),
		),
		limiter:  ratelimit.New(),
		retryMax: 3,
		backoff:  Backoff{Min: 200 * time.Millisecond, Max: 3 * time.Second, Factor: 2.0, Jitter: 0.2},
		capacity: 15,
		refill:   0.25,
		logger:   applogger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithRetry sets the retry budget and backoff shape.
func WithRetry(max int, backoff Backoff) Option {
	return func(c *Client) {
		if max > 0 {
			c.retryMax = max
		}
		c.backoff = backoff
	}
}

// WithRateLimit sets the outbound scrape budget.
func WithRateLimit(capacity, refillPerSec float64) Option {
	return func(c *Client) {
		c.capacity = capacity
		c.refill = refillPerSec
	}
}

// WithLogger sets the client logger.
func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// Fetch performs one logical fetch for the request's category. Transient
// failures (timeouts, connection errors, 5xx) are retried with backoff
// up to the retry budget; everything else fails immediately.
func (c *Client) Fetch(ctx context.Context, req models.FetchRequest) (*models.RawPayload, error) {
	url, err := c.urlFor(req)
	if err != nil {
		return nil, err
	}

	if !c.limiter.Allow(limiterKey, c.capacity, c.refill) {
		c.logger.Warn("scrape budget exhausted", applogger.String("url", url))
		return nil, fmt.Errorf("%w: scrape budget exhausted", models.ErrUpstreamUnavailable)
	}

	var lastErr error
	for attempt := 1; attempt <= c.retryMax; attempt++ {
		payload, err := c.fetchOnce(ctx, req, url)
		if err == nil {
			return payload, nil
		}
		lastErr = err

		if !models.Transient(err) {
			return nil, err
		}
		if attempt == c.retryMax {
			break
		}

		wait := c.backoff.Next(attempt)
		c.logger.Warn("upstream fetch retry",
			applogger.String("category", string(req.Category)),
			applogger.Int("attempt", attempt),
			applogger.Duration("wait", wait),
			applogger.Error(err),
		)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", models.ErrUpstreamTimeout, ctx.Err())
		}
	}
	return nil, lastErr
}

func (c *Client) fetchOnce(ctx context.Context, req models.FetchRequest, url string) (*models.RawPayload, error) {
	resp, err := c.http.Get(ctx, url)
	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", models.ErrUpstreamTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrUpstreamUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		if len(resp.Body) == 0 {
			return nil, fmt.Errorf("%w: empty body from %s", models.ErrUpstreamMalformed, url)
		}
		return &models.RawPayload{
			Category:  req.Category,
			Body:      resp.Body,
			FetchedAt: time.Now(),
		}, nil
	case resp.StatusCode == http.StatusNotFound && req.Category == models.CategoryStockDetail:
		return nil, fmt.Errorf("%w: %s", models.ErrSymbolNotFound, req.Symbol)
	case resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status %d from %s", models.ErrUpstreamUnavailable, resp.StatusCode, url)
	default:
		return nil, fmt.Errorf("%w: unexpected status %d from %s", models.ErrUpstreamMalformed, resp.StatusCode, url)
	}
}

func (c *Client) urlFor(req models.FetchRequest) (string, error) {
	switch req.Category {
	case models.CategoryLive:
		return c.baseURL + "/live-trading", nil
	case models.CategorySummary:
		return c.baseURL + "/today-share-price", nil
	case models.CategoryStockDetail:
		if req.Symbol == "" {
			return "", fmt.Errorf("%w: empty symbol", models.ErrSymbolNotFound)
		}
		return c.baseURL + "/company/" + strings.ToUpper(req.Symbol), nil
	default:
		return "", fmt.Errorf("unknown fetch category %q", req.Category)
	}
}

func isTimeout(err error) bool {
	var tErr interface{ Timeout() bool }
	if errors.As(err, &tErr) {
		return tErr.Timeout()
	}
	return errors.Is(err, context.DeadlineExceeded)
}
