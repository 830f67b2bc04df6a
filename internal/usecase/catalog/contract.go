package catalog

import (
	"context"

	domcard "github.com/kailas-cloud/cardex/internal/domain/card"
)

// Repository reads published cards from the record store.
type Repository interface {
	List(ctx context.Context, opts domcard.ListOptions) ([]domcard.Card, error)
	Count(ctx context.Context, f domcard.Filters) (int, error)
	Get(ctx context.Context, id string) (domcard.Card, error)
	GetMany(ctx context.Context, ids []string) ([]domcard.Card, error)
	Featured(ctx context.Context, limit int) ([]domcard.Card, error)
	FilterOptions(ctx context.Context) (domcard.FilterOptions, error)
	Stats(ctx context.Context) (domcard.Stats, error)
}
