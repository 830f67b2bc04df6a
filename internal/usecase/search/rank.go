package search

import (
	"sort"

	"github.com/kailas-cloud/cardex/internal/domain/card"
	"github.com/kailas-cloud/cardex/internal/domain/search/result"
	"github.com/kailas-cloud/cardex/internal/domain/search/similarity"
)

// rank scores published candidates against the query vector, keeps those at or
// above threshold, orders them by score descending (fetch order on ties) and
// truncates to limit.
func rank(query []float32, candidates []card.Candidate, threshold float64, limit int) []result.Result {
	out := make([]result.Result, 0, len(candidates))
	for _, c := range candidates {
		if !c.Card.Published {
			continue
		}
		score := similarity.Cosine(query, c.Vector)
		if score >= threshold {
			out = append(out, result.Semantic(c.Card, score))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score() > out[j].Score()
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// keywordResults tags published matches with the nominal keyword score.
func keywordResults(cards []card.Card, limit int) []result.Result {
	out := make([]result.Result, 0, len(cards))
	for _, c := range cards {
		if !c.Published {
			continue
		}
		out = append(out, result.Keyword(c))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
