package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTP Prometheus metrics.
var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cardex",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardex",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cardex",
			Name:      "http_requests_in_flight",
			Help:      "API requests currently being served",
		},
	)
)

// unmeteredRoutes are probe and scrape endpoints kept out of the request metrics.
var unmeteredRoutes = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

var httpMetricsRegistered bool

// RegisterHTTPMetrics registers Prometheus HTTP metrics. Must be called once from main.
func RegisterHTTPMetrics() {
	if httpMetricsRegistered {
		return
	}
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpInFlight)
	httpMetricsRegistered = true
}

// Middleware records HTTP request duration and count per chi route pattern.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, skip := unmeteredRoutes[r.URL.Path]; skip {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			httpInFlight.Inc()
			defer httpInFlight.Dec()

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			route := routeLabel(r)
			status := strconv.Itoa(ww.status)
			httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
		})
	}
}

// routeLabel keeps label cardinality bounded: /api/cards/{id} instead of the raw
// path, and one bucket for requests no route matched.
func routeLabel(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return "unmatched"
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return "unmatched"
}

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.wroteHeader = true
	}
	return w.ResponseWriter.Write(b) //nolint:wrapcheck // delegating to underlying ResponseWriter
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
