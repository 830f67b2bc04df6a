package memory

import (
	"context"
	"sort"
	"time"

	domql "github.com/kailas-cloud/cardex/internal/domain/querylog"
)

// Append records one query.
func (s *Store) Append(_ context.Context, e domql.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, e)
	return nil
}

// Popular returns the most frequent queries logged since the given time.
func (s *Store) Popular(_ context.Context, since time.Time, limit int) ([]domql.Popular, error) {
	s.mu.RLock()
	counts := make(map[string]int)
	for _, e := range s.queries {
		if !e.CreatedAt.Before(since) {
			counts[e.Query]++
		}
	}
	s.mu.RUnlock()

	out := make([]domql.Popular, 0, len(counts))
	for q, n := range counts {
		out = append(out, domql.Popular{Query: q, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Query < out[j].Query
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Queries returns a copy of the log.
func (s *Store) Queries() []domql.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domql.Entry(nil), s.queries...)
}
