package domain

import (
	"context"
	"sync"
)

type embeddingUsageKey struct{}

// EmbeddingUsage collects the tokens one API request spent on embeddings.
// The handler installs it, the instrumented embedder adds to it from whichever
// goroutine runs the query embedding, and the handler reports it in headers.
type EmbeddingUsage struct {
	mu    sync.Mutex
	total int
	used  bool
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, embeddingUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(embeddingUsageKey{}).(*EmbeddingUsage)
	return u
}

// AddTokens records consumed tokens. A cache hit adds 0 and still counts as used.
// Safe on a nil receiver.
func (u *EmbeddingUsage) AddTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.total += n
	u.used = true
	u.mu.Unlock()
}

// Tokens reports the total and whether the provider chain was called at all.
func (u *EmbeddingUsage) Tokens() (total int, used bool) {
	if u == nil {
		return 0, false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.total, u.used
}
