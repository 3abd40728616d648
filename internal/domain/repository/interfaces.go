package repository

import (
	"context"

	"NepsePulse/internal/domain/models"
)

// Source performs one logical fetch of one data category from the
// upstream site. It is the only component allowed to reach the network
// for market data.
type Source interface {
	Fetch(ctx context.Context, req models.FetchRequest) (*models.RawPayload, error)
}

// Normalizer converts raw upstream payloads into the typed data model.
// Implementations must be pure: no I/O, no retained state, no references
// held into the payload after return.
type Normalizer interface {
	NormalizeLive(p *models.RawPayload) ([]models.MarketTick, error)
	NormalizeSummary(p *models.RawPayload) (*models.MarketSummary, error)
	NormalizeDetail(p *models.RawPayload, symbol string) (*models.StockDetail, error)
}

// MarketData is the facade the API layer consumes. Handlers call exactly
// these methods and do no caching or retrying of their own.
type MarketData interface {
	Live(ctx context.Context) (models.LiveResult, error)
	Summary(ctx context.Context) (models.SummaryResult, error)
	StockDetail(ctx context.Context, symbol string) (models.DetailResult, error)
	TopGainers(ctx context.Context, limit int) (models.RankedResult, error)
	TopLosers(ctx context.Context, limit int) (models.RankedResult, error)
}

// Publisher emits refreshed live ticks to downstream consumers.
type Publisher interface {
	PublishTicks(ctx context.Context, ticks []models.MarketTick) error
	Close() error
}

// Metrics records operational counters for the refresh pipeline.
type Metrics interface {
	RecordFetch(category, outcome string, seconds float64)
	RecordCacheRead(category, outcome string)
	RecordCoalesceJoin(category string)
	RecordStaleServe(category string)
	RecordNepseIndex(value float64)
}
