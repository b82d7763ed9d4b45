// Package metrics registers the Prometheus collectors shared by the search engine and both servers.
package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Index metrics
	IndexedTerms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hpo_indexed_terms",
		Help: "Number of terms in the loaded index",
	})

	IndexedNeighbors = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hpo_indexed_neighbors",
		Help: "Number of neighbor links in the loaded index",
	})

	// Engine metrics
	Searches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hpo_searches_total",
			Help: "Number of searches, by outcome",
		},
		[]string{"outcome"},
	)

	RelatedRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hpo_related_requests_total",
		Help: "Number of related-term rankings computed",
	})

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hpo_cache_hits_total",
			Help: "Number of search cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hpo_cache_misses_total",
			Help: "Number of search cache misses",
		},
		[]string{"cache_type"},
	)

	// Transport metrics
	Requests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hpo_requests_total",
			Help: "Number of requests handled, by transport and command",
		},
		[]string{"transport", "command", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hpo_request_duration_seconds",
			Help:    "Request handling latency",
			Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
		},
		[]string{"transport", "command"},
	)

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hpo_active_sessions",
		Help: "Number of live HTTP selection sessions",
	})

	// System metrics
	SystemMemoryUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hpo_system_memory_bytes",
		Help: "Current heap allocation",
	})

	SystemGoroutines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hpo_system_goroutines",
		Help: "Number of goroutines",
	})
)

// UpdateSystemMetrics refreshes the memory and goroutine gauges.
func UpdateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	SystemMemoryUsage.Set(float64(m.Alloc))
	SystemGoroutines.Set(float64(runtime.NumGoroutine()))
}

// RecordIndex publishes the size of a freshly built index.
func RecordIndex(terms, neighbors int) {
	IndexedTerms.Set(float64(terms))
	IndexedNeighbors.Set(float64(neighbors))
}
