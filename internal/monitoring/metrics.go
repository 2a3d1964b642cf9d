// Package monitoring holds the Prometheus metrics for the aggregation
// pipeline.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts cache behavior and per-store fan-out outcomes. A nil
// *Metrics is valid and records nothing, which keeps tests free of registry
// setup.
type Metrics struct {
	CacheHits      *prometheus.CounterVec
	CacheMisses    *prometheus.CounterVec
	StoreFailures  *prometheus.CounterVec
	FallbackTotal  prometheus.Counter
	AggregateTotal prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aggregator_cache_hits_total",
			Help: "Cache hits by namespace",
		}, []string{"namespace"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aggregator_cache_misses_total",
			Help: "Cache misses by namespace",
		}, []string{"namespace"}),
		StoreFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aggregator_store_failures_total",
			Help: "Per-store fan-out failures by reason",
		}, []string{"reason"}),
		FallbackTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aggregator_shopping_fallback_total",
			Help: "Times the shopping source was used as a fallback",
		}),
		AggregateTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aggregator_requests_total",
			Help: "Aggregation requests processed",
		}),
	}
}

func (m *Metrics) IncCacheHit(namespace string) {
	if m != nil {
		m.CacheHits.WithLabelValues(namespace).Inc()
	}
}

func (m *Metrics) IncCacheMiss(namespace string) {
	if m != nil {
		m.CacheMisses.WithLabelValues(namespace).Inc()
	}
}

func (m *Metrics) IncStoreFailure(reason string) {
	if m != nil {
		m.StoreFailures.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncFallback() {
	if m != nil {
		m.FallbackTotal.Inc()
	}
}

func (m *Metrics) IncAggregate() {
	if m != nil {
		m.AggregateTotal.Inc()
	}
}
