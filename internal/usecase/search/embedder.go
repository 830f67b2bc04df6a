package search

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrProviderUnavailable marks a failed query embedding. It never leaves this package.
var ErrProviderUnavailable = errors.New("embedding provider unavailable")

// QueryEmbedding is the outcome of embedding a query: a vector or the reason there is none.
type QueryEmbedding struct {
	Vector []float32
	Err    error
}

// OK reports whether the embedding can be ranked against candidates.
func (q QueryEmbedding) OK() bool { return q.Err == nil && len(q.Vector) > 0 }

// QueryEmbedder makes one bounded provider call per query.
// Timeouts, provider errors and empty vectors all yield a failed outcome.
type QueryEmbedder struct {
	inner   Embedder
	timeout time.Duration
}

// NewQueryEmbedder wraps an embedder. timeout <= 0 disables the bound.
func NewQueryEmbedder(inner Embedder, timeout time.Duration) *QueryEmbedder {
	return &QueryEmbedder{inner: inner, timeout: timeout}
}

// Embed returns the query vector or a failed outcome. It never returns an error.
func (e *QueryEmbedder) Embed(ctx context.Context, text string) QueryEmbedding {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	res, err := e.inner.Embed(ctx, text)
	if err != nil {
		return QueryEmbedding{Err: fmt.Errorf("%w: %w", ErrProviderUnavailable, err)}
	}
	if len(res.Embedding) == 0 {
		return QueryEmbedding{Err: fmt.Errorf("%w: empty vector", ErrProviderUnavailable)}
	}
	return QueryEmbedding{Vector: res.Embedding}
}
