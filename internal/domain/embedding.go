package domain

import (
	"context"
	"fmt"
)

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes multiple texts in a single API call.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries multiple embedding vectors and aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// BatchFallback calls Embed once per text for providers without a native batch endpoint.
func BatchFallback(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	embeddings := make([][]float32, len(texts))
	var totalPrompt, totalTokens int

	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("fallback embed [%d]: %w", i, err)
		}
		embeddings[i] = res.Embedding
		totalPrompt += res.PromptTokens
		totalTokens += res.TotalTokens
	}

	return BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: totalPrompt,
		TotalTokens:  totalTokens,
	}, nil
}

// BatchEmbed uses the native batch endpoint when e has one.
func BatchEmbed(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	if be, ok := e.(BatchEmbedder); ok {
		res, err := be.BatchEmbed(ctx, texts)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
		}
		return res, nil
	}
	return BatchFallback(ctx, e, texts)
}
