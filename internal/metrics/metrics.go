// Package metrics collects the request and cache counters exposed for
// Prometheus scraping and for the JSON /cache/stats endpoint.
//
// Everything here is passive: other components increment counters, and
// external infrastructure pulls them. No component reads metric values
// for its own logic.
package metrics

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private Prometheus registry so tests can create
// independent instances without colliding on the global default
// registry.
//
// Cache hits/misses are double-counted into atomics because the
// /cache/stats endpoint returns them as JSON; Prometheus counters are
// write-only from the application's point of view.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	hitCount  atomic.Int64
	missCount atomic.Int64
}

// New creates a Metrics with all collectors registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "student_api_requests_total",
			Help: "Total HTTP requests by endpoint, method, and status code.",
		}, []string{"endpoint", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "student_api_request_duration_seconds",
			Help:    "HTTP request latency by endpoint.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "student_api_cache_hits_total",
			Help: "Number of reads served from the cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "student_api_cache_misses_total",
			Help: "Number of reads that fell through to the database.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestsTotal,
		m.requestDuration,
		m.cacheHits,
		m.cacheMisses,
	)

	return m
}

// Handler serves the registry in the Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(endpoint, method string, status int, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// Hit implements cache.Metrics.
func (m *Metrics) Hit() {
	m.cacheHits.Inc()
	m.hitCount.Add(1)
}

// Miss implements cache.Metrics.
func (m *Metrics) Miss() {
	m.cacheMisses.Inc()
	m.missCount.Add(1)
}

// CacheStats is the JSON body of GET /cache/stats.
type CacheStats struct {
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	HitRatio float64 `json:"hit_ratio"`
}

// StatsHandler serves GET /cache/stats: the hit/miss counters as JSON
// for callers that do not speak the Prometheus exposition format.
func (m *Metrics) StatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(m.CacheStats())
	}
}

// CacheStats returns a snapshot of the hit/miss counters.
func (m *Metrics) CacheStats() CacheStats {
	hits := m.hitCount.Load()
	misses := m.missCount.Load()

	stats := CacheStats{Hits: hits, Misses: misses}
	if total := hits + misses; total > 0 {
		stats.HitRatio = float64(hits) / float64(total)
	}
	return stats
}
