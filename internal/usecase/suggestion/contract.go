package suggestion

import (
	"context"
	"time"

	domcard "github.com/kailas-cloud/cardex/internal/domain/card"
	domql "github.com/kailas-cloud/cardex/internal/domain/querylog"
)

// QueryLog records queries and reports the most frequent ones.
type QueryLog interface {
	Append(ctx context.Context, e domql.Entry) error
	Popular(ctx context.Context, since time.Time, limit int) ([]domql.Popular, error)
}

// CardReader reads published cards.
type CardReader interface {
	Published(ctx context.Context, limit int) ([]domcard.Card, error)
	KeywordSearch(ctx context.Context, query string, limit int) ([]domcard.Card, error)
}
