// Package metrics defines the Prometheus metric collectors used by the search
// driver and the graph query service and exposes an HTTP handler for
// scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the platform.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	WordsProcessedTotal  prometheus.Counter
	WordsHitTotal        prometheus.Counter
	ChunksTotal          *prometheus.CounterVec
	ChunkDuration        prometheus.Histogram
	StoreEntries         prometheus.Gauge
	SnapshotSavesTotal   *prometheus.CounterVec
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	EdgesPublishedTotal  *prometheus.CounterVec
}

// New creates all collectors and registers them with reg. A nil reg uses the
// default Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		WordsProcessedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "recurse_words_processed_total",
				Help: "Total root words searched by the driver.",
			},
		),
		WordsHitTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "recurse_words_hit_total",
				Help: "Total root words with a non-empty decomposition.",
			},
		),
		ChunksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recurse_chunks_total",
				Help: "Work chunks by outcome (ok, timeout, panic).",
			},
			[]string{"status"},
		),
		ChunkDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "recurse_chunk_duration_seconds",
				Help:    "Wall time spent searching one chunk.",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
			},
		),
		StoreEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "recurse_store_entries",
				Help: "Number of root words held by the result store.",
			},
		),
		SnapshotSavesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recurse_snapshot_saves_total",
				Help: "Result store snapshot saves by status.",
			},
			[]string{"status"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of query cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of query cache misses.",
			},
		),
		EdgesPublishedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recurse_hit_events_total",
				Help: "Hit events handed to the broker by status (ok, error, dropped).",
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.WordsProcessedTotal,
		m.WordsHitTotal,
		m.ChunksTotal,
		m.ChunkDuration,
		m.StoreEntries,
		m.SnapshotSavesTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.EdgesPublishedTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
