// Package metrics holds the Prometheus collectors for the balance API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "balance_api_cache_hits_total",
		Help: "Number of cache hits, per cache.",
	}, []string{"cache"})

	cacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "balance_api_cache_misses_total",
		Help: "Number of cache misses (including expired entries), per cache.",
	}, []string{"cache"})

	upstreamRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "balance_api_upstream_requests_total",
		Help: "Number of calls to upstream providers, per provider and outcome.",
	}, []string{"provider", "outcome"})

	upstreamDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "balance_api_upstream_request_duration_seconds",
		Help:    "Latency of upstream provider calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "balance_api_http_request_duration_seconds",
		Help:    "Latency of handled HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "status"})
)

// MustRegisterMetrics registers all collectors with the default registry.
// Call once from main before serving traffic.
func MustRegisterMetrics() {
	prometheus.MustRegister(
		cacheHits,
		cacheMisses,
		upstreamRequests,
		upstreamDuration,
		httpRequestDuration,
	)
}

// CacheHit records a hit on the named cache.
func CacheHit(cache string) {
	cacheHits.WithLabelValues(cache).Inc()
}

// CacheMiss records a miss on the named cache.
func CacheMiss(cache string) {
	cacheMisses.WithLabelValues(cache).Inc()
}

// ObserveUpstream records one upstream call with its duration and outcome.
func ObserveUpstream(provider string, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	upstreamRequests.WithLabelValues(provider, outcome).Inc()
	upstreamDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveHTTPRequest records one handled HTTP request.
func ObserveHTTPRequest(path, status string, elapsed time.Duration) {
	httpRequestDuration.WithLabelValues(path, status).Observe(elapsed.Seconds())
}
