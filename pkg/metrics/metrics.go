// Package metrics defines the Prometheus collectors exposed by the search
// engine. Collectors register against a caller-supplied Registerer; with no
// Registerer each engine gets its own private registry, so multiple engines
// in one process never collide.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for the engine.
type Metrics struct {
	DocsIndexedTotal   prometheus.Counter
	DocsRemovedTotal   prometheus.Counter
	SearchesTotal      *prometheus.CounterVec
	SearchLatency      *prometheus.HistogramVec
	SearchResultsCount prometheus.Histogram
	CacheHitsTotal     prometheus.Counter
	CacheMissesTotal   prometheus.Counter
	FlushesTotal       *prometheus.CounterVec
	RebuildsTotal      *prometheus.CounterVec
	IndexDocuments     prometheus.Gauge
	IndexTerms         prometheus.Gauge
	IndexSizeBytes     prometheus.Gauge
}

// New creates all collectors and registers them with reg. A nil reg gets a
// fresh private registry. A collector already present in reg is reused
// instead of re-registered, so sharing one Registerer across engines is safe.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "shelfdex_docs_indexed_total",
				Help: "Total documents indexed or re-indexed.",
			},
		),
		DocsRemovedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "shelfdex_docs_removed_total",
				Help: "Total documents removed from the index.",
			},
		),
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelfdex_searches_total",
				Help: "Total search queries by outcome (hit, zero_result, empty_query).",
			},
			[]string{"outcome"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shelfdex_search_latency_seconds",
				Help:    "Search query latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"cache_status"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "shelfdex_search_results_count",
				Help:    "Number of results returned per search query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "shelfdex_cache_hits_total",
				Help: "Total query cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "shelfdex_cache_misses_total",
				Help: "Total query cache misses.",
			},
		),
		FlushesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelfdex_index_flushes_total",
				Help: "Total index persistence flushes by status.",
			},
			[]string{"status"},
		),
		RebuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelfdex_index_rebuilds_total",
				Help: "Total full index rebuilds by status (completed, superseded, cancelled).",
			},
			[]string{"status"},
		),
		IndexDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "shelfdex_index_documents",
				Help: "Documents currently in the index.",
			},
		),
		IndexTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "shelfdex_index_terms",
				Help: "Distinct terms currently in the index.",
			},
		),
		IndexSizeBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "shelfdex_index_size_bytes",
				Help: "Estimated in-memory index size in bytes.",
			},
		),
	}

	m.DocsIndexedTotal = register(reg, m.DocsIndexedTotal)
	m.DocsRemovedTotal = register(reg, m.DocsRemovedTotal)
	m.SearchesTotal = register(reg, m.SearchesTotal)
	m.SearchLatency = register(reg, m.SearchLatency)
	m.SearchResultsCount = register(reg, m.SearchResultsCount)
	m.CacheHitsTotal = register(reg, m.CacheHitsTotal)
	m.CacheMissesTotal = register(reg, m.CacheMissesTotal)
	m.FlushesTotal = register(reg, m.FlushesTotal)
	m.RebuildsTotal = register(reg, m.RebuildsTotal)
	m.IndexDocuments = register(reg, m.IndexDocuments)
	m.IndexTerms = register(reg, m.IndexTerms)
	m.IndexSizeBytes = register(reg, m.IndexSizeBytes)

	return m
}

// register adds c to reg, returning the already-registered collector when
// one with the same descriptor exists. Never panics.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	return c
}

// Nop returns a Metrics registered against a private registry, for callers
// that disable metrics.
func Nop() *Metrics {
	return New(nil)
}
