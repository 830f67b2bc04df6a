package metrics

import "github.com/prometheus/client_golang/prometheus"

// LLM chat-completion Prometheus metrics.
var (
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardex",
			Name:      "llm_requests_total",
			Help:      "Total number of chat completion requests",
		},
		[]string{"provider", "model", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cardex",
			Name:      "llm_request_duration_seconds",
			Help:      "Chat completion duration in seconds, including retries",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"provider", "model"},
	)

	LLMErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardex",
			Name:      "llm_errors_total",
			Help:      "Total chat completion errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	// LLMFallbacksTotal counts answers served from deterministic fallbacks.
	LLMFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardex",
			Name:      "llm_fallbacks_total",
			Help:      "Answers produced without the LLM",
		},
		[]string{"feature"},
	)
)

var llmMetricsRegistered bool

// RegisterLLMMetrics registers Prometheus LLM metrics. Must be called once from main.
func RegisterLLMMetrics() {
	if llmMetricsRegistered {
		return
	}
	prometheus.MustRegister(LLMRequestsTotal)
	prometheus.MustRegister(LLMRequestDuration)
	prometheus.MustRegister(LLMErrorsTotal)
	prometheus.MustRegister(LLMFallbacksTotal)
	llmMetricsRegistered = true
}
