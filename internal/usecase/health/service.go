package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded means search still answers, through keyword matching or without the cache.
	Degraded Status = "degraded"
	// Unhealthy means the record store is down and nothing can be served.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentDatabase  = "database"
	ComponentCache     = "cache"
	ComponentEmbedding = "embedding"
)

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db        Pinger
	cache     Pinger
	embedding EmbeddingChecker
	timeout   time.Duration
}

// New creates a Service. cache and embedding can be nil.
func New(db Pinger, cache Pinger, embedding EmbeddingChecker) *Service {
	return &Service{db: db, cache: cache, embedding: embedding, timeout: DefaultCheckTimeout}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{
		ComponentDatabase: s.run(ctx, s.db.Ping),
	}
	if s.cache != nil {
		checks[ComponentCache] = s.run(ctx, s.cache.Ping)
	}
	if s.embedding != nil {
		checks[ComponentEmbedding] = s.run(ctx, s.embedding.HealthCheck)
	}

	status := Healthy
	if checks[ComponentDatabase] == CheckError {
		status = Unhealthy
	} else {
		for _, v := range checks {
			if v == CheckError {
				status = Degraded
				break
			}
		}
	}

	return Report{Status: status, Checks: checks}
}

func (s *Service) run(ctx context.Context, check func(context.Context) error) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := check(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
