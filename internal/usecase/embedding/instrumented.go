package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cardex/internal/domain"
)

// DefaultMaxAPIBatchSize is the largest batch sent in one API request.
const DefaultMaxAPIBatchSize = 100

// InstrumentedEmbedder wraps Embedder with dimension checks, usage accounting
// and logging. Transport metrics (requests, duration, tokens) are recorded in
// transport/openai.
type InstrumentedEmbedder struct {
	inner      domain.Embedder
	provider   string
	model      string
	dimensions int
	logger     *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder with observability.
// dimensions > 0 enforces the vector length returned by the provider.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	dimensions int, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:      inner,
		provider:   provider,
		model:      model,
		dimensions: dimensions,
		logger:     logger,
	}
}

// Embed delegates to the inner embedder and records usage on the request context.
func (p *InstrumentedEmbedder) Embed(
	ctx context.Context, text string,
) (domain.EmbeddingResult, error) {
	start := time.Now()

	result, err := p.inner.Embed(ctx, text)

	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	if err := p.checkDim(result.Embedding); err != nil {
		return domain.EmbeddingResult{}, err
	}

	domain.UsageFromContext(ctx).AddTokens(result.TotalTokens)

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// BatchEmbed splits texts into API-sized chunks and delegates to inner.
func (p *InstrumentedEmbedder) BatchEmbed(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	start := time.Now()

	result, err := p.embedChunked(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}

	domain.UsageFromContext(ctx).AddTokens(result.TotalTokens)

	p.logger.Debug("Batch embedding completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("batch_size", len(texts)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

func (p *InstrumentedEmbedder) embedChunked(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	var allEmbeddings [][]float32
	var totalPrompt, totalTokens int

	for offset := 0; offset < len(texts); offset += DefaultMaxAPIBatchSize {
		end := min(offset+DefaultMaxAPIBatchSize, len(texts))
		chunk := texts[offset:end]

		chunkResult, err := domain.BatchEmbed(ctx, p.inner, chunk)
		if err != nil {
			p.logger.Error("Batch embedding request failed",
				zap.String("provider", p.provider),
				zap.String("model", p.model),
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
		}
		if len(chunkResult.Embeddings) != len(chunk) {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("chunk %d: got %d embeddings for %d texts: %w",
				offset, len(chunkResult.Embeddings), len(chunk), domain.ErrEmbeddingProviderError)
		}
		for _, vec := range chunkResult.Embeddings {
			if err := p.checkDim(vec); err != nil {
				return domain.BatchEmbeddingResult{}, err
			}
		}

		allEmbeddings = append(allEmbeddings, chunkResult.Embeddings...)
		totalPrompt += chunkResult.PromptTokens
		totalTokens += chunkResult.TotalTokens
	}

	return domain.BatchEmbeddingResult{
		Embeddings:   allEmbeddings,
		PromptTokens: totalPrompt,
		TotalTokens:  totalTokens,
	}, nil
}

func (p *InstrumentedEmbedder) checkDim(vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("empty embedding: %w", domain.ErrEmbeddingProviderError)
	}
	if p.dimensions > 0 && len(vec) != p.dimensions {
		return fmt.Errorf("got %d dimensions, want %d: %w", len(vec), p.dimensions, domain.ErrVectorDimMismatch)
	}
	return nil
}
