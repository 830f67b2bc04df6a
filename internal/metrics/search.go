package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardex",
			Name:      "search_requests_total",
			Help:      "Completed searches by the path that produced the results",
		},
		[]string{"search_type"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cardex",
			Name:      "search_duration_seconds",
			Help:      "End-to-end search duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"search_type"},
	)

	SearchResultsCount = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cardex",
			Name:      "search_results_count",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
		[]string{"search_type"},
	)

	QueryLogFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cardex",
			Name:      "query_log_failures_total",
			Help:      "Query log appends that failed and were dropped",
		},
	)

	ReindexCardsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardex",
			Name:      "reindex_cards_total",
			Help:      "Cards processed by reindex runs",
		},
		[]string{"status"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchResultsCount)
	prometheus.MustRegister(QueryLogFailuresTotal)
	prometheus.MustRegister(ReindexCardsTotal)
	searchMetricsRegistered = true
}
