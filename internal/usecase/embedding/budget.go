package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cardex/internal/domain"
)

// BudgetedEmbedder caps the provider tokens spent per UTC day. Once the cap is
// reached every call fails with domain.ErrEmbeddingQuotaExceeded until midnight,
// which sends searches down the keyword path. Counters live in process memory.
type BudgetedEmbedder struct {
	inner    domain.Embedder
	provider string
	limit    int64
	logger   *zap.Logger
	now      func() time.Time

	mu     sync.Mutex
	used   int64
	day    time.Time
	warned bool
}

// NewBudgetedEmbedder wraps inner with a daily token limit. limit <= 0 disables the cap.
func NewBudgetedEmbedder(inner domain.Embedder, provider string, limit int64, logger *zap.Logger) *BudgetedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &BudgetedEmbedder{
		inner:    inner,
		provider: provider,
		limit:    limit,
		logger:   logger,
		now:      time.Now,
	}
	b.day = truncateToDay(b.now())
	return b
}

// Embed checks the budget, then records the tokens the provider reports.
func (b *BudgetedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := b.check(); err != nil {
		return domain.EmbeddingResult{}, err
	}
	res, err := b.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, err //nolint:wrapcheck // decorator passes provider errors through
	}
	b.record(res.TotalTokens)
	return res, nil
}

// BatchEmbed checks the budget once for the whole batch.
func (b *BudgetedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	if err := b.check(); err != nil {
		return domain.BatchEmbeddingResult{}, err
	}
	res, err := domain.BatchEmbed(ctx, b.inner, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err //nolint:wrapcheck // already wrapped by domain.BatchEmbed
	}
	b.record(res.TotalTokens)
	return res, nil
}

func (b *BudgetedEmbedder) check() error {
	if b.limit <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.resetIfNeeded()
	if b.used < b.limit {
		return nil
	}
	if !b.warned {
		b.warned = true
		b.logger.Warn("Daily embedding token budget exhausted, falling back to keyword search",
			zap.String("provider", b.provider),
			zap.Int64("used", b.used),
			zap.Int64("limit", b.limit),
		)
	}
	return fmt.Errorf("%d of %d tokens used today: %w", b.used, b.limit, domain.ErrEmbeddingQuotaExceeded)
}

func (b *BudgetedEmbedder) record(tokens int) {
	if b.limit <= 0 || tokens <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetIfNeeded()
	b.used += int64(tokens)
}

// resetIfNeeded zeroes the counter when the UTC day rolls over.
func (b *BudgetedEmbedder) resetIfNeeded() {
	if today := truncateToDay(b.now()); today.After(b.day) {
		b.day = today
		b.used = 0
		b.warned = false
	}
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
