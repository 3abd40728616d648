package di

import (
	"fmt"

	"NepsePulse/internal/domain/models"
	"NepsePulse/internal/domain/repository"
	"NepsePulse/internal/handler/api"
	"NepsePulse/internal/handler/ws"
	"NepsePulse/internal/normalize"
	"NepsePulse/internal/publish"
	"NepsePulse/internal/service/marketdata"
	"NepsePulse/internal/upstream/sharesansar"
	"NepsePulse/pkg/cache"
	"NepsePulse/pkg/config"
	xhttp "NepsePulse/pkg/http"
	pkgkafka "NepsePulse/pkg/kafka"
	applogger "NepsePulse/pkg/logger"
	"NepsePulse/pkg/metrics"
	"NepsePulse/pkg/server"
)

// ProvideLogger creates the structured application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSource creates the upstream scraper client.
func ProvideSource(cfg *config.Config, logger *applogger.Logger) repository.Source {
	return sharesansar.New(
		cfg.Upstream.BaseURL,
		cfg.Upstream.UserAgent,
		cfg.Upstream.FetchTimeout,
		sharesansar.WithRetry(cfg.Upstream.RetryMax, sharesansar.Backoff{
			Min:    cfg.Upstream.BackoffMin,
			Max:    cfg.Upstream.BackoffMax,
			Factor: 2.0,
			Jitter: 0.2,
		}),
		sharesansar.WithRateLimit(cfg.Upstream.RateLimit.Capacity, cfg.Upstream.RateLimit.RefillPerSec),
		sharesansar.WithLogger(logger),
	)
}

// ProvideNormalizer creates the page normalizer.
func ProvideNormalizer() repository.Normalizer {
	return normalize.New()
}

// ProvideStore creates the freshness store with configured windows.
func ProvideStore(cfg *config.Config) *marketdata.Store {
	return marketdata.NewStore(marketdata.Thresholds{
		models.CategoryLive:        cfg.Freshness.Live,
		models.CategorySummary:     cfg.Freshness.Summary,
		models.CategoryStockDetail: cfg.Freshness.Detail,
	})
}

// ProvideSnapshotCache creates the snapshot store: layered over Redis
// when enabled, plain in-memory otherwise.
func ProvideSnapshotCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	redisCache, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(redisCache), nil
}

// ProvidePublisher creates the Kafka tick publisher, or nil when Kafka
// is disabled.
func ProvidePublisher(cfg *config.Config) (repository.Publisher, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return publish.NewTickPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideMarketService creates the market data service.
func ProvideMarketService(
	cfg *config.Config,
	logger *applogger.Logger,
	source repository.Source,
	norm repository.Normalizer,
	store *marketdata.Store,
	snapshots cache.Service,
	publisher repository.Publisher,
	rec repository.Metrics,
) *marketdata.Service {
	opts := []marketdata.Option{
		marketdata.WithLogger(logger),
		marketdata.WithMetrics(rec),
		marketdata.WithSnapshots(snapshots, cfg.Service.SnapshotTTL),
		marketdata.WithPollInterval(cfg.Freshness.Live),
		marketdata.WithRequestTimeout(cfg.Service.RequestTimeout),
	}
	if publisher != nil {
		opts = append(opts, marketdata.WithPublisher(publisher))
	}
	return marketdata.New(source, norm, store, opts...)
}

// ProvideMarketData exposes the service as its facade interface.
func ProvideMarketData(svc *marketdata.Service) repository.MarketData {
	return svc
}

// ProvideHandlers assembles the HTTP handler set.
func ProvideHandlers(logger *applogger.Logger, data repository.MarketData, svc *marketdata.Service) []xhttp.Handler {
	return []xhttp.Handler{
		api.NewMarketHandler(logger, data),
		api.NewHealthHandler(svc.CachedEntries),
		ws.NewLiveHandler(logger, svc),
	}
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	handlers []xhttp.Handler,
	publisher repository.Publisher,
	snapshots cache.Service,
) *server.App {
	return server.New(cfg, logger, handlers, publisher, snapshots)
}
