package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"NepsePulse/internal/domain/models"
	"NepsePulse/internal/domain/repository"
	"NepsePulse/pkg/cache"
	applogger "NepsePulse/pkg/logger"
	"NepsePulse/pkg/util"
)

// Service is the market data facade. It owns the freshness store and
// the request coalescer; handlers call it and never touch the upstream
// or the cache directly.
//
// Read path per key: fresh cache hit is served as-is; otherwise a
// refresh is coalesced across concurrent callers. A failed refresh
// degrades to the stale cache entry, then to the last persisted
// snapshot, and only then surfaces the error.
type Service struct {
	source    repository.Source
	norm      repository.Normalizer
	store     *Store
	group     *Group
	snapshots cache.Service
	publisher repository.Publisher
	metrics   repository.Metrics
	logger    *applogger.Logger

	snapshotTTL    time.Duration
	pollInterval   time.Duration
	requestTimeout time.Duration
	now            func() time.Time

	subMu    sync.Mutex
	subs     map[chan models.LiveResult]struct{}
	pollStop chan struct{}
}

// Option configures the Service.
type Option func(*Service)

// WithSnapshots enables snapshot persistence for cross-restart
// degradation.
func WithSnapshots(c cache.Service, ttl time.Duration) Option {
	return func(s *Service) {
		s.snapshots = c
		if ttl > 0 {
			s.snapshotTTL = ttl
		}
	}
}

// WithPublisher enables tick publishing on every live refresh.
func WithPublisher(p repository.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m repository.Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *applogger.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPollInterval sets the live stream refresh cadence.
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithRequestTimeout caps how long one read operation may wait for a
// refresh, retries included.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// New creates the market data service.
func New(source repository.Source, norm repository.Normalizer, store *Store, opts ...Option) *Service {
	s := &Service{
		source:       source,
		norm:         norm,
		store:        store,
		group:        NewGroup(),
		metrics:      nopMetrics{},
		logger:       applogger.Nop(),
		snapshotTTL:  time.Hour,
		pollInterval: 5 * time.Second,
		now:          time.Now,
		subs:         make(map[chan models.LiveResult]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Live returns the latest tick per traded symbol.
func (s *Service) Live(ctx context.Context) (models.LiveResult, error) {
	ticks, updated, stale, err := resolve(ctx, s, liveKey(), s.fetchLive)
	if err != nil {
		return models.LiveResult{}, err
	}
	return models.LiveResult{AsOf: updated, Stale: stale, Ticks: ticks}, nil
}

// Summary returns the full market snapshot with exchange indices.
func (s *Service) Summary(ctx context.Context) (models.SummaryResult, error) {
	summary, updated, stale, err := resolve(ctx, s, summaryKey(), s.fetchSummary)
	if err != nil {
		return models.SummaryResult{}, err
	}
	return models.SummaryResult{AsOf: updated, Stale: stale, Summary: *summary}, nil
}

// StockDetail returns the detail page data for one symbol.
func (s *Service) StockDetail(ctx context.Context, symbol string) (models.DetailResult, error) {
	symbol = util.NormalizeSymbol(symbol)
	if !util.ValidSymbol(symbol) {
		return models.DetailResult{}, fmt.Errorf("%w: %q", models.ErrSymbolNotFound, symbol)
	}
	detail, updated, stale, err := resolve(ctx, s, detailKey(symbol), func(ctx context.Context) (*models.StockDetail, error) {
		return s.fetchDetail(ctx, symbol)
	})
	if err != nil {
		return models.DetailResult{}, err
	}
	return models.DetailResult{AsOf: updated, Stale: stale, Detail: *detail}, nil
}

// TopGainers returns up to limit symbols ranked by percent gain.
func (s *Service) TopGainers(ctx context.Context, limit int) (models.RankedResult, error) {
	return s.ranked(ctx, limit, true)
}

// TopLosers returns up to limit symbols ranked by percent loss.
func (s *Service) TopLosers(ctx context.Context, limit int) (models.RankedResult, error) {
	return s.ranked(ctx, limit, false)
}

// ranked derives gainers/losers from the market summary so both share
// its cache entry and coalescing slot.
func (s *Service) ranked(ctx context.Context, limit int, gainers bool) (models.RankedResult, error) {
	res, err := s.Summary(ctx)
	if err != nil {
		return models.RankedResult{}, err
	}
	return models.RankedResult{
		AsOf:    res.AsOf,
		Stale:   res.Stale,
		Entries: rank(res.Summary.Ticks, gainers, limit),
	}, nil
}

// CachedEntries reports the freshness store size, for health reporting.
func (s *Service) CachedEntries() int {
	return s.store.Len()
}

// resolve runs the read path for one key: fresh hit, coalesced refresh,
// then stale and snapshot degradation. It returns the value, its update
// instant, and whether the value is past its freshness window.
func resolve[T any](ctx context.Context, s *Service, key Key, produce func(context.Context) (T, error)) (T, time.Time, bool, error) {
	var zero T
	category := string(key.Category)

	// parent distinguishes the caller's own cancellation from the
	// service-imposed deadline below.
	parent := ctx
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	if e, ok := s.store.Get(key); ok && s.store.Fresh(key, e, s.now()) {
		if v, okT := e.Value.(T); okT {
			s.metrics.RecordCacheRead(category, "hit")
			return v, e.UpdatedAt, false, nil
		}
	}
	s.metrics.RecordCacheRead(category, "miss")

	val, joined, err := s.group.Do(ctx, key, func(fctx context.Context) (any, error) {
		v, perr := produce(fctx)
		if perr != nil {
			return nil, perr
		}
		updated := s.now()
		s.store.Put(key, v, updated)
		saveSnapshot(fctx, s, key, v, updated)
		return v, nil
	})
	if joined {
		s.metrics.RecordCoalesceJoin(category)
	}
	if err == nil {
		v, okT := val.(T)
		if !okT {
			return zero, time.Time{}, false, fmt.Errorf("unexpected cached type for %s", key)
		}
		e, _ := s.store.Get(key)
		return v, e.UpdatedAt, false, nil
	}

	// The caller's own cancellation is never degraded away.
	if parent.Err() != nil {
		return zero, time.Time{}, false, err
	}
	// A missing symbol is an answer, not an outage.
	if errors.Is(err, models.ErrSymbolNotFound) {
		return zero, time.Time{}, false, err
	}
	// The service deadline elapsed while the fetch keeps running for
	// later callers; classify it before trying to degrade.
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %v", models.ErrUpstreamTimeout, err)
	}

	if e, ok := s.store.Get(key); ok {
		if v, okT := e.Value.(T); okT {
			s.metrics.RecordStaleServe(category)
			s.logger.Warn("refresh failed, serving stale entry",
				applogger.String("key", key.String()),
				applogger.Time("updated_at", e.UpdatedAt),
				applogger.Error(err),
			)
			return v, e.UpdatedAt, true, nil
		}
	}
	if rec, ok := loadSnapshot[T](ctx, s, key); ok {
		s.store.Put(key, rec.Value, rec.UpdatedAt)
		s.metrics.RecordStaleServe(category)
		s.logger.Warn("refresh failed, restored snapshot",
			applogger.String("key", key.String()),
			applogger.Time("updated_at", rec.UpdatedAt),
			applogger.Error(err),
		)
		return rec.Value, rec.UpdatedAt, true, nil
	}

	return zero, time.Time{}, false, err
}

func (s *Service) fetchLive(ctx context.Context) ([]models.MarketTick, error) {
	p, err := s.fetchRaw(ctx, models.FetchRequest{Category: models.CategoryLive})
	if err != nil {
		return nil, err
	}
	ticks, err := s.norm.NormalizeLive(p)
	if err != nil {
		return nil, err
	}
	s.publishTicks(ctx, ticks)
	return ticks, nil
}

func (s *Service) fetchSummary(ctx context.Context) (*models.MarketSummary, error) {
	p, err := s.fetchRaw(ctx, models.FetchRequest{Category: models.CategorySummary})
	if err != nil {
		return nil, err
	}
	summary, err := s.norm.NormalizeSummary(p)
	if err != nil {
		return nil, err
	}
	if summary.Indices.NepseIndex > 0 {
		s.metrics.RecordNepseIndex(summary.Indices.NepseIndex)
	}
	return summary, nil
}

func (s *Service) fetchDetail(ctx context.Context, symbol string) (*models.StockDetail, error) {
	p, err := s.fetchRaw(ctx, models.FetchRequest{Category: models.CategoryStockDetail, Symbol: symbol})
	if err != nil {
		return nil, err
	}
	return s.norm.NormalizeDetail(p, symbol)
}

func (s *Service) fetchRaw(ctx context.Context, req models.FetchRequest) (*models.RawPayload, error) {
	start := time.Now()
	p, err := s.source.Fetch(ctx, req)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.metrics.RecordFetch(string(req.Category), outcome, time.Since(start).Seconds())
	return p, err
}

func (s *Service) publishTicks(ctx context.Context, ticks []models.MarketTick) {
	if s.publisher == nil || len(ticks) == 0 {
		return
	}
	if err := s.publisher.PublishTicks(ctx, ticks); err != nil {
		s.logger.Warn("tick publish failed", applogger.Int("ticks", len(ticks)), applogger.Error(err))
	}
}

func rank(ticks []models.MarketTick, gainers bool, limit int) []models.RankedEntry {
	entries := make([]models.RankedEntry, 0, len(ticks))
	for _, t := range ticks {
		if (gainers && t.PercentChange > 0) || (!gainers && t.PercentChange < 0) {
			entries = append(entries, models.RankedEntry{Symbol: t.Symbol, PercentChange: t.PercentChange})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.PercentChange != b.PercentChange {
			if gainers {
				return a.PercentChange > b.PercentChange
			}
			return a.PercentChange < b.PercentChange
		}
		return a.Symbol < b.Symbol
	})
	if limit < 0 {
		limit = 0
	}
	if limit > len(entries) {
		limit = len(entries)
	}
	return entries[:limit]
}

type snapshotRecord[T any] struct {
	Value     T         `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func saveSnapshot[T any](ctx context.Context, s *Service, key Key, v T, updated time.Time) {
	if s.snapshots == nil {
		return
	}
	rec := snapshotRecord[T]{Value: v, UpdatedAt: updated}
	if err := s.snapshots.Set(ctx, cache.Key("snapshot", key.String()), rec, s.snapshotTTL); err != nil {
		s.logger.Warn("snapshot save failed", applogger.String("key", key.String()), applogger.Error(err))
	}
}

func loadSnapshot[T any](ctx context.Context, s *Service, key Key) (snapshotRecord[T], bool) {
	var rec snapshotRecord[T]
	if s.snapshots == nil {
		return rec, false
	}
	err := s.snapshots.Get(ctx, cache.Key("snapshot", key.String()), &rec)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("snapshot load failed", applogger.String("key", key.String()), applogger.Error(err))
		}
		return rec, false
	}
	return rec, true
}

type nopMetrics struct{}

func (nopMetrics) RecordFetch(string, string, float64) {}
func (nopMetrics) RecordCacheRead(string, string)      {}
func (nopMetrics) RecordCoalesceJoin(string)           {}
func (nopMetrics) RecordStaleServe(string)             {}
func (nopMetrics) RecordNepseIndex(float64)            {}
