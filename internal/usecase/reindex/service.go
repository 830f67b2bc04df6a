package reindex

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/cardex/internal/domain"
	domcard "github.com/kailas-cloud/cardex/internal/domain/card"
	"github.com/kailas-cloud/cardex/internal/logger"
	"github.com/kailas-cloud/cardex/internal/metrics"
)

const (
	DefaultWorkers   = 4
	DefaultBatchSize = 16
)

// Config tunes a reindex run.
type Config struct {
	Workers   int
	BatchSize int
	// Model is recorded with each stored vector.
	Model string
}

// Result summarizes a reindex run.
type Result struct {
	Total    int
	Indexed  int
	Failed   int
	Duration time.Duration
}

// Service embeds the summary text of every published card.
type Service struct {
	repo  Repository
	embed Embedder
	cfg   Config
}

// New creates a reindex service.
func New(repo Repository, embed Embedder, cfg Config) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Service{repo: repo, embed: embed, cfg: cfg}
}

// Run reindexes all published cards. Per-card failures are counted, never returned;
// only failing to list the catalog or a cancelled ctx aborts the run.
func (s *Service) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	log := logger.FromContext(ctx)

	cards, err := s.repo.Published(ctx, 0)
	if err != nil {
		return Result{}, fmt.Errorf("list published cards: %w", err)
	}

	var indexed, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for lo := 0; lo < len(cards); lo += s.cfg.BatchSize {
		batch := cards[lo:min(lo+s.cfg.BatchSize, len(cards))]
		g.Go(func() error {
			if gctx.Err() != nil {
				failed.Add(int64(len(batch)))
				return nil
			}
			ok := s.indexBatch(gctx, log, batch)
			indexed.Add(int64(ok))
			failed.Add(int64(len(batch) - ok))
			return nil
		})
	}
	_ = g.Wait()

	res := Result{
		Total:    len(cards),
		Indexed:  int(indexed.Load()),
		Failed:   int(failed.Load()),
		Duration: time.Since(start),
	}
	metrics.ReindexCardsTotal.WithLabelValues("indexed").Add(float64(res.Indexed))
	metrics.ReindexCardsTotal.WithLabelValues("failed").Add(float64(res.Failed))

	log.Info("Reindex finished",
		zap.Int("total", res.Total),
		zap.Int("indexed", res.Indexed),
		zap.Int("failed", res.Failed),
		zap.Duration("duration", res.Duration),
	)
	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("reindex interrupted: %w", err)
	}
	return res, nil
}

// indexBatch embeds and stores one batch. Returns the number of cards stored.
func (s *Service) indexBatch(ctx context.Context, log *zap.Logger, batch []domcard.Card) int {
	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = batch[i].SummaryText()
	}

	res, err := domain.BatchEmbed(ctx, s.embed, texts)
	if err == nil && len(res.Embeddings) != len(batch) {
		err = fmt.Errorf("%w: got %d embeddings for %d cards",
			domain.ErrEmbeddingProviderError, len(res.Embeddings), len(batch))
	}
	if err != nil {
		log.Warn("Failed to embed card batch",
			zap.String("first_card", batch[0].ID), zap.Int("size", len(batch)), zap.Error(err))
		return 0
	}

	ok := 0
	for i := range batch {
		v := domcard.Vector{
			CardID:      batch[i].ID,
			ContentType: domcard.ContentSummary,
			Model:       s.cfg.Model,
			Values:      res.Embeddings[i],
		}
		if err := s.repo.UpsertVector(ctx, v); err != nil {
			log.Warn("Failed to store card vector", zap.String("card_id", batch[i].ID), zap.Error(err))
			continue
		}
		ok++
	}
	return ok
}
