package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cardex/internal/config"
	"github.com/kailas-cloud/cardex/internal/db"
	dbPostgres "github.com/kailas-cloud/cardex/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/cardex/internal/db/redis"
	"github.com/kailas-cloud/cardex/internal/domain"
	"github.com/kailas-cloud/cardex/internal/metrics"
	cardrepo "github.com/kailas-cloud/cardex/internal/repository/card"
	chatrepo "github.com/kailas-cloud/cardex/internal/repository/chat"
	"github.com/kailas-cloud/cardex/internal/repository/embcache"
	"github.com/kailas-cloud/cardex/internal/repository/memory"
	querylogrepo "github.com/kailas-cloud/cardex/internal/repository/querylog"
	"github.com/kailas-cloud/cardex/internal/seed"
	openaiTransport "github.com/kailas-cloud/cardex/internal/transport/openai"
	"github.com/kailas-cloud/cardex/internal/usecase/catalog"
	chatuc "github.com/kailas-cloud/cardex/internal/usecase/chat"
	embeddinguc "github.com/kailas-cloud/cardex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/cardex/internal/usecase/health"
	"github.com/kailas-cloud/cardex/internal/usecase/reindex"
	searchuc "github.com/kailas-cloud/cardex/internal/usecase/search"
	"github.com/kailas-cloud/cardex/internal/usecase/suggestion"
)

// cardStore is everything the use cases need from the card tables.
type cardStore interface {
	searchuc.Repository
	catalog.Repository
	reindex.Repository
	seed.Writer
}

// queryLogStore records search queries and reports popular ones.
type queryLogStore interface {
	suggestion.QueryLog
}

// stores is the record store opened for the configured driver.
type stores struct {
	cards   cardStore
	queries queryLogStore
	chats   chatuc.Repository
	db      healthuc.Pinger
	close   func()
}

// openStores connects the configured driver. The memory driver is loaded
// from database.seed_file when one is set.
func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (*stores, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		mem := memory.New()
		if cfg.Database.SeedFile != "" {
			cards, err := seed.ParseFile(cfg.Database.SeedFile)
			if err != nil {
				return nil, err
			}
			if _, err := seed.Load(ctx, mem, cards); err != nil {
				return nil, err
			}
		}
		logger.Info("Using in-memory store", zap.String("seed_file", cfg.Database.SeedFile))
		return &stores{cards: mem, queries: mem, chats: mem, db: mem, close: func() {}}, nil

	case config.DriverPostgres:
		pg, err := dbPostgres.New(ctx, dbPostgres.Config{
			DSN:             cfg.Database.DSN,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: time.Duration(cfg.Database.MaxConnLifetimeMin) * time.Minute,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres pool: %w", err)
		}
		timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := pg.WaitForReady(ctx, timeout); err != nil {
			pg.Close()
			return nil, fmt.Errorf("database not ready: %w", err)
		}
		logger.Info("Connected to database")
		return &stores{
			cards:   cardrepo.New(pg.Pool),
			queries: querylogrepo.New(pg.Pool),
			chats:   chatrepo.New(pg.Pool),
			db:      pg,
			close:   pg.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

// openCache connects the embedding cache. It returns a nil Cache and a no-op
// close func when no cache is configured.
func openCache(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (db.Cache, func(), error) {
	if !cfg.Enabled() {
		return nil, func() {}, nil
	}
	cache, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Addrs,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create cache client: %w", err)
	}
	if err := cache.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		cache.Close()
		return nil, nil, fmt.Errorf("cache not ready: %w", err)
	}
	logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Addrs))
	return cache, cache.Close, nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Budgeted -> Cached -> Instrumented.
// Cache hits never touch the token budget.
// The bare provider is returned too for health checks.
func buildEmbedder(
	cfg config.EmbeddingConfig, cache db.Cache, ttl time.Duration, logger *zap.Logger,
) (domain.Embedder, *openaiTransport.Embedder) {
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if cfg.DailyTokenBudget > 0 {
		embedder = embeddinguc.NewBudgetedEmbedder(embedder, cfg.Provider, cfg.DailyTokenBudget, logger)
	}
	if cache != nil {
		embedder = embcache.New(base, cache, cfg.Model, ttl, metrics.EmbeddingCacheTotal, logger)
	}

	instrumented := embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, cfg.Dimensions, logger)
	return instrumented, base
}

func buildCompleter(cfg config.LLMConfig, logger *zap.Logger) *openaiTransport.Completer {
	return openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{
		Config: openaiTransport.Config{
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
			Model:    cfg.Model,
			Provider: cfg.Provider,
			Timeout:  time.Duration(cfg.TimeoutSec) * time.Second,
			Logger:   logger,
		},
		MaxAttempts:    cfg.MaxAttempts,
		BaseBackoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		TotalTimeout:   time.Duration(cfg.TotalTimeoutSec) * time.Second,
		RequestsPerSec: cfg.RequestsPerSec,
		Burst:          cfg.Burst,
		Temperature:    cfg.Temperature,
		MaxTokens:      cfg.MaxTokens,
	})
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
