package chi

import (
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cardex/internal/domain/search/request"
	"github.com/kailas-cloud/cardex/internal/metrics"
	"github.com/kailas-cloud/cardex/internal/usecase/advisor"
	"github.com/kailas-cloud/cardex/internal/usecase/catalog"
	chatuc "github.com/kailas-cloud/cardex/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/cardex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/cardex/internal/usecase/search"
	"github.com/kailas-cloud/cardex/internal/usecase/suggestion"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Services are the use cases exposed over HTTP.
type Services struct {
	Search      *searchuc.Service
	Catalog     *catalog.Service
	Chat        *chatuc.Service
	Advisor     *advisor.Service
	Suggestions *suggestion.Service
	Health      *healthuc.Service
}

// Options configure the HTTP surface.
type Options struct {
	APIKeys        []string
	AllowedOrigins []string
	// SearchDefaults apply to /api/search, BrowseDefaults to /api/cards/search.
	SearchDefaults request.Defaults
	BrowseDefaults request.Defaults
}

// Server is the cardex HTTP API.
type Server struct {
	svc           Services
	opts          Options
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(svc Services, opts Options, logger *zap.Logger) *Server {
	if opts.SearchDefaults.Limit == 0 {
		opts.SearchDefaults = request.APIDefaults()
	}
	if opts.BrowseDefaults.Limit == 0 {
		opts.BrowseDefaults = request.BrowseDefaults()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		svc:           svc,
		opts:          opts,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Handler builds the router with the full middleware stack.
func (s *Server) Handler() http.Handler {
	r := chirouter.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(corsMiddleware(s.opts.AllowedOrigins))
	r.Use(BearerAuthMiddleware(s.opts.APIKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chirouter.Router) {
		r.Post("/search", s.SearchPost)
		r.Get("/search", s.SearchGet)

		r.Route("/cards", func(r chirouter.Router) {
			r.Get("/", s.ListCards)
			r.Post("/search", s.BrowseSearch)
			r.Get("/featured", s.FeaturedCards)
			r.Get("/filters", s.FilterOptions)
			r.Get("/stats", s.CatalogStats)
			r.Post("/compare", s.CompareCards)
			r.Get("/{id}", s.GetCard)
			r.Get("/{id}/summary", s.CardSummary)
		})

		r.Post("/recommend", s.Recommend)

		r.Post("/chat", s.ChatSend)
		r.Get("/chat", s.ChatHistory)
		r.Delete("/chat", s.ChatDelete)

		r.Get("/suggestions", s.Suggestions)
		r.Post("/suggestions", s.RelatedSuggestions)
	})

	return r
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.svc.Health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status": string(report.Status),
		"checks": checks,
	})
}
