package reindex

import (
	"context"

	"github.com/kailas-cloud/cardex/internal/domain"
	domcard "github.com/kailas-cloud/cardex/internal/domain/card"
)

// Repository reads published cards and stores their vectors.
type Repository interface {
	Published(ctx context.Context, limit int) ([]domcard.Card, error)
	UpsertVector(ctx context.Context, v domcard.Vector) error
}

// Embedder vectorizes card text. A domain.BatchEmbedder is used when available.
type Embedder interface {
	domain.Embedder
}
