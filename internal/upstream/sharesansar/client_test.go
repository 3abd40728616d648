package sharesansar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"NepsePulse/internal/domain/models"
)

func newTestClient(baseURL string) *Client {
	return New(baseURL, "test-agent", 2*time.Second,
		WithRetry(3, Backoff{Min: time.Millisecond, Max: 5 * time.Millisecond, Factor: 2}),
		WithRateLimit(1000, 1000),
	)
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	payload, err := c.Fetch(context.Background(), models.FetchRequest{Category: models.CategoryLive})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if payload.Category != models.CategoryLive {
		t.Errorf("category = %q", payload.Category)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestFetchExhaustsRetryBudget(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Fetch(context.Background(), models.FetchRequest{Category: models.CategorySummary})
	if !errors.Is(err, models.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestFetchSymbolNotFoundNoRetry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Fetch(context.Background(), models.FetchRequest{
		Category: models.CategoryStockDetail,
		Symbol:   "NONEXISTENT",
	})
	if !errors.Is(err, models.ErrSymbolNotFound) {
		t.Fatalf("expected ErrSymbolNotFound, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("expected a single attempt, got %d", got)
	}
}

func TestFetchEmptyBodyIsMalformed(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Fetch(context.Background(), models.FetchRequest{Category: models.CategoryLive})
	if !errors.Is(err, models.ErrUpstreamMalformed) {
		t.Fatalf("expected ErrUpstreamMalformed, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("malformed response must not be retried, got %d attempts", got)
	}
}

func TestFetchRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-agent", time.Second, WithRateLimit(1, 0.0001))
	if _, err := c.Fetch(context.Background(), models.FetchRequest{Category: models.CategoryLive}); err != nil {
		t.Fatalf("first fetch should pass: %v", err)
	}
	_, err := c.Fetch(context.Background(), models.FetchRequest{Category: models.CategoryLive})
	if !errors.Is(err, models.ErrUpstreamUnavailable) {
		t.Fatalf("expected budget exhaustion, got %v", err)
	}
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	b := Backoff{Min: 100 * time.Millisecond, Max: 400 * time.Millisecond, Factor: 2}
	if got := b.Next(1); got != 100*time.Millisecond {
		t.Errorf("attempt 1 = %v", got)
	}
	if got := b.Next(2); got != 200*time.Millisecond {
		t.Errorf("attempt 2 = %v", got)
	}
	if got := b.Next(10); got != 400*time.Millisecond {
		t.Errorf("attempt 10 should cap at max, got %v", got)
	}
}
