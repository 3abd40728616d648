package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	fetchesTotal  *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	cacheReads    *prometheus.CounterVec
	coalesceJoins *prometheus.CounterVec
	staleServes   *prometheus.CounterVec
	nepseIndex    prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		fetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nepsepulse_upstream_fetches_total",
				Help: "Upstream fetches by category and outcome",
			},
			[]string{"category", "outcome"},
		),
		fetchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nepsepulse_upstream_fetch_duration_seconds",
				Help:    "Upstream fetch duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"category"},
		),
		cacheReads: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nepsepulse_cache_reads_total",
				Help: "Freshness cache reads by outcome (fresh, stale, miss)",
			},
			[]string{"category", "outcome"},
		),
		coalesceJoins: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nepsepulse_coalesced_requests_total",
				Help: "Requests that joined an in-flight fetch instead of starting one",
			},
			[]string{"category"},
		),
		staleServes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nepsepulse_stale_serves_total",
				Help: "Responses served from a stale cache entry after a fetch failure",
			},
			[]string{"category"},
		),
		nepseIndex: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "nepsepulse_nepse_index",
				Help: "Last observed NEPSE index value",
			},
		),
	}
}

// RecordFetch records one upstream fetch outcome and duration.
func (r *Recorder) RecordFetch(category, outcome string, seconds float64) {
	r.fetchesTotal.WithLabelValues(category, outcome).Inc()
	r.fetchDuration.WithLabelValues(category).Observe(seconds)
}

// RecordCacheRead records a freshness cache read outcome.
func (r *Recorder) RecordCacheRead(category, outcome string) {
	r.cacheReads.WithLabelValues(category, outcome).Inc()
}

// RecordCoalesceJoin records a request that attached to an in-flight fetch.
func (r *Recorder) RecordCoalesceJoin(category string) {
	r.coalesceJoins.WithLabelValues(category).Inc()
}

// RecordStaleServe records a degraded response from stale data.
func (r *Recorder) RecordStaleServe(category string) {
	r.staleServes.WithLabelValues(category).Inc()
}

// RecordNepseIndex records the last observed index value.
func (r *Recorder) RecordNepseIndex(value float64) {
	r.nepseIndex.Set(value)
}
