package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cardex/internal/config"
	domcard "github.com/kailas-cloud/cardex/internal/domain/card"
	"github.com/kailas-cloud/cardex/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/cardex/internal/logger"
	"github.com/kailas-cloud/cardex/internal/metrics"
	chiTransport "github.com/kailas-cloud/cardex/internal/transport/chi"
	"github.com/kailas-cloud/cardex/internal/usecase/advisor"
	"github.com/kailas-cloud/cardex/internal/usecase/catalog"
	chatuc "github.com/kailas-cloud/cardex/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/cardex/internal/usecase/health"
	"github.com/kailas-cloud/cardex/internal/usecase/reindex"
	searchuc "github.com/kailas-cloud/cardex/internal/usecase/search"
	"github.com/kailas-cloud/cardex/internal/usecase/suggestion"
	"github.com/kailas-cloud/cardex/internal/version"
)

func newServeCmd(rt *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.serve(cmd.Context())
		},
	}
}

func (rt *cli) serve(ctx context.Context) error {
	cfg, logger := rt.cfg, rt.logger

	logger.Info("Starting cardex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", rt.env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterLLMMetrics()
	metrics.RegisterSearchMetrics()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	cache, closeCache, err := openCache(ctx, cfg.Cache, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	embedder, provider := buildEmbedder(cfg.Embedding, cache, time.Duration(cfg.Cache.TTLHours)*time.Hour, logger)
	llm := buildCompleter(cfg.LLM, logger)
	logger.Info("Providers created",
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("llm_model", cfg.LLM.Model),
		zap.Duration("llm_call_budget", cfg.LLM.CallBudget()),
		zap.Bool("embedding_cache", cache != nil),
	)

	if cfg.Database.Driver == config.DriverMemory && cfg.Embedding.APIKey != "" {
		go rt.indexInBackground(st, embedder)
	}

	queryEmbedder := searchuc.NewQueryEmbedder(embedder, time.Duration(cfg.Search.EmbedTimeoutMS)*time.Millisecond)
	services := chiTransport.Services{
		Search:  searchuc.New(st.cards, st.queries, queryEmbedder, domcard.ContentSummary),
		Catalog: catalog.New(st.cards),
		Chat: chatuc.New(st.chats, st.cards, llm, cfg.LLM.Model).
			WithCardLimits(cfg.Chat.ContextCards, cfg.Chat.PromptCards),
		Advisor:     advisor.New(st.cards, llm),
		Suggestions: suggestion.New(st.queries, st.cards),
		Health:      healthuc.New(st.db, cache, newEmbeddingHealthChecker(provider)),
	}

	server := chiTransport.NewServer(services, chiTransport.Options{
		APIKeys:        cfg.Auth.APIKeys,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		SearchDefaults: request.Defaults{Limit: cfg.Search.DefaultLimit, Threshold: cfg.Search.DefaultThreshold},
		BrowseDefaults: request.Defaults{Limit: cfg.Search.BrowseLimit, Threshold: cfg.Search.BrowseThreshold},
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Handler(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-quit:
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// indexInBackground embeds the seeded catalog so a memory-backed server
// answers semantically once it finishes. Search falls back to keywords until then.
func (rt *cli) indexInBackground(st *stores, embedder reindex.Embedder) {
	ctx := logpkg.ContextWithLogger(context.Background(), rt.logger.With(zap.String("job", "reindex")))
	svc := reindex.New(st.cards, embedder, reindex.Config{
		Workers:   rt.cfg.Reindex.Workers,
		BatchSize: rt.cfg.Reindex.BatchSize,
		Model:     rt.cfg.Embedding.Model,
	})
	if _, err := svc.Run(ctx); err != nil {
		rt.logger.Warn("Background reindex failed", zap.Error(err))
	}
}
