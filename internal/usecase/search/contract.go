package search

import (
	"context"

	"github.com/kailas-cloud/cardex/internal/domain"
	"github.com/kailas-cloud/cardex/internal/domain/card"
	"github.com/kailas-cloud/cardex/internal/domain/querylog"
)

// Repository defines the read-only storage contract for search.
type Repository interface {
	// Candidates returns published cards joined to their vector of contentType.
	Candidates(ctx context.Context, contentType string) ([]card.Candidate, error)
	// KeywordSearch returns up to limit published cards containing query literally.
	KeywordSearch(ctx context.Context, query string, limit int) ([]card.Card, error)
}

// QueryLog is the best-effort sink for submitted queries.
type QueryLog interface {
	Append(ctx context.Context, e querylog.Entry) error
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
