package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"NepsePulse/internal/domain/models"
	applogger "NepsePulse/pkg/logger"
)

type stubMarketData struct {
	live    models.LiveResult
	summary models.SummaryResult
	detail  models.DetailResult
	ranked  models.RankedResult
	err     error

	lastLimit  int
	lastSymbol string
}

func (s *stubMarketData) Live(context.Context) (models.LiveResult, error) {
	return s.live, s.err
}

func (s *stubMarketData) Summary(context.Context) (models.SummaryResult, error) {
	return s.summary, s.err
}

func (s *stubMarketData) StockDetail(_ context.Context, symbol string) (models.DetailResult, error) {
	s.lastSymbol = symbol
	return s.detail, s.err
}

func (s *stubMarketData) TopGainers(_ context.Context, limit int) (models.RankedResult, error) {
	s.lastLimit = limit
	return s.ranked, s.err
}

func (s *stubMarketData) TopLosers(_ context.Context, limit int) (models.RankedResult, error) {
	s.lastLimit = limit
	return s.ranked, s.err
}

func setupEcho(stub *stubMarketData) *echo.Echo {
	e := echo.New()
	NewMarketHandler(applogger.Nop(), stub).RegisterRoutes(e)
	return e
}

func doRequest(e *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLiveEndpoint(t *testing.T) {
	stub := &stubMarketData{live: models.LiveResult{
		AsOf:  time.Now(),
		Ticks: []models.MarketTick{{Symbol: "NABIL", LastPrice: 512.5}},
	}}
	rec := doRequest(setupEcho(stub), "/api/market/live")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if cc := rec.Header().Get(echo.HeaderCacheControl); cc != "public, max-age=5" {
		t.Errorf("cache-control = %q", cc)
	}

	var body struct {
		Data models.LiveResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data.Ticks) != 1 || body.Data.Ticks[0].Symbol != "NABIL" {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestStockDetailInvalidSymbolRejected(t *testing.T) {
	stub := &stubMarketData{}
	for _, path := range []string{"/api/stock/n", "/api/stock/TOOLONGSYM", "/api/stock/12AB"} {
		rec := doRequest(setupEcho(stub), path)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
	}
	if stub.lastSymbol != "" {
		t.Errorf("invalid symbols must never reach the service")
	}
}

func TestStockDetailLowercaseNormalized(t *testing.T) {
	stub := &stubMarketData{detail: models.DetailResult{
		Detail: models.StockDetail{MarketTick: models.MarketTick{Symbol: "NABIL"}},
	}}
	rec := doRequest(setupEcho(stub), "/api/stock/nabil")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if stub.lastSymbol != "NABIL" {
		t.Errorf("service received %q, want normalized symbol", stub.lastSymbol)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: GHOST", models.ErrSymbolNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: deadline", models.ErrUpstreamTimeout), http.StatusGatewayTimeout},
		{fmt.Errorf("%w: status 503", models.ErrUpstreamUnavailable), http.StatusBadGateway},
		{fmt.Errorf("%w: no table", models.ErrNormalization), http.StatusBadGateway},
	}
	for _, tc := range cases {
		stub := &stubMarketData{err: tc.err}
		rec := doRequest(setupEcho(stub), "/api/stock/NABIL")
		if rec.Code != tc.want {
			t.Errorf("%v: status = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}

func TestRankedLimitValidation(t *testing.T) {
	stub := &stubMarketData{ranked: models.RankedResult{Entries: []models.RankedEntry{}}}
	e := setupEcho(stub)

	rec := doRequest(e, "/api/market/top-gainers")
	if rec.Code != http.StatusOK {
		t.Fatalf("default limit: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if stub.lastLimit != 10 {
		t.Errorf("default limit = %d, want 10", stub.lastLimit)
	}

	rec = doRequest(e, "/api/market/top-losers?limit=25")
	if rec.Code != http.StatusOK {
		t.Fatalf("explicit limit: status = %d", rec.Code)
	}
	if stub.lastLimit != 25 {
		t.Errorf("limit = %d, want 25", stub.lastLimit)
	}

	for _, q := range []string{"limit=500", "limit=abc", "limit=-1"} {
		rec = doRequest(e, "/api/market/top-gainers?"+q)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rec.Code)
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	e := echo.New()
	NewHealthHandler(func() int { return 3 }).RegisterRoutes(e)

	rec := doRequest(e, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Data healthStatus `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Status != "ok" || body.Data.CacheEntries != 3 {
		t.Errorf("body = %s", rec.Body.String())
	}
}
