package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search pipeline Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rankdex",
			Name:      "search_requests_total",
			Help:      "Total number of search pipeline runs",
		},
		[]string{"pipeline", "source"}, // source: "cache" / "backend"
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rankdex",
			Name:      "search_duration_seconds",
			Help:      "Search pipeline duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"pipeline"},
	)

	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rankdex",
			Name:      "cache_total",
			Help:      "Result cache hits and misses by entry kind",
		},
		[]string{"kind", "result"}, // kind: "search"/"document"/"stats", result: "hit"/"miss"
	)

	RerankDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rankdex",
			Name:      "rerank_dropped_candidates_total",
			Help:      "Candidates dropped from scoring due to feature schema mismatch",
		},
	)

	RerankFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rankdex",
			Name:      "rerank_fallback_total",
			Help:      "Full fallbacks to lexical ordering",
		},
		[]string{"reason"}, // "not_ready" / "no_valid_vectors" / "scoring_error"
	)
)

// RegisterSearchMetrics registers search collectors explicitly (no init()).
func RegisterSearchMetrics() {
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(CacheTotal)
	prometheus.MustRegister(RerankDroppedTotal)
	prometheus.MustRegister(RerankFallbackTotal)
}
