package db

import (
	"context"
	"time"
)

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Cache is the key-value store for derived, re-computable data such as embeddings.
type Cache interface {
	Pinger
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
