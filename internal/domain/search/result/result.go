// Package result holds the request-scoped output of a hybrid search.
package result

import "github.com/kailas-cloud/cardex/internal/domain/card"

// MatchReason tags how a result was found.
type MatchReason string

// Match reasons.
const (
	ReasonSemantic MatchReason = "semantic_match"
	ReasonKeyword  MatchReason = "keyword_match"
)

// KeywordScore is the nominal score of every keyword match.
// The UI renders confidence bars from it, so the value is fixed.
const KeywordScore = 0.5

// SearchType tags which path produced a response.
type SearchType string

// Search types.
const (
	// TypeSemantic: embedding succeeded and at least one card cleared the threshold.
	TypeSemantic SearchType = "semantic"
	// TypeKeyword: embedding failed, results come from the keyword matcher.
	TypeKeyword SearchType = "keyword"
	// TypeKeywordFallback: embedding succeeded but nothing cleared the threshold.
	TypeKeywordFallback SearchType = "keyword_fallback"
)

// IsFallback reports whether the results came from the keyword matcher.
func (t SearchType) IsFallback() bool { return t != TypeSemantic }

// Result is a single search hit.
type Result struct {
	card   card.Card
	score  float64
	reason MatchReason
}

// Semantic creates a similarity-scored result.
func Semantic(c card.Card, score float64) Result {
	return Result{card: c, score: score, reason: ReasonSemantic}
}

// Keyword creates a keyword match with the nominal score.
func Keyword(c card.Card) Result {
	return Result{card: c, score: KeywordScore, reason: ReasonKeyword}
}

// Card returns the matched card.
func (r *Result) Card() card.Card { return r.card }

// Score returns the similarity score, or KeywordScore for keyword matches.
func (r *Result) Score() float64 { return r.score }

// Reason returns the match reason tag.
func (r *Result) Reason() MatchReason { return r.reason }

// Response is the outcome of one search.
type Response struct {
	Query      string
	Results    []Result
	SearchType SearchType
	Threshold  float64
}

// TotalResults returns the number of results.
func (r *Response) TotalResults() int { return len(r.Results) }
