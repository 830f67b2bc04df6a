package advisor

import (
	"context"

	domcard "github.com/kailas-cloud/cardex/internal/domain/card"
)

// CardReader loads published cards with their features.
type CardReader interface {
	Get(ctx context.Context, id string) (domcard.Card, error)
	GetMany(ctx context.Context, ids []string) ([]domcard.Card, error)
	Published(ctx context.Context, limit int) ([]domcard.Card, error)
}
