package suggestion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cardex/internal/domain"
	domcard "github.com/kailas-cloud/cardex/internal/domain/card"
	domql "github.com/kailas-cloud/cardex/internal/domain/querylog"
	"github.com/kailas-cloud/cardex/internal/logger"
	"github.com/kailas-cloud/cardex/internal/metrics"
)

// Kind selects where suggestions come from.
type Kind string

const (
	KindPopular   Kind = "popular"
	KindGenerated Kind = "generated"
	KindMixed     Kind = "mixed"
	// KindFallback is reported when the static list was served instead.
	KindFallback Kind = "fallback"
)

// ParseKind maps a request value to a Kind. Unknown values are mixed.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "popular":
		return KindPopular
	case "generated", "ai_generated":
		return KindGenerated
	default:
		return KindMixed
	}
}

const (
	// DefaultLimit is the number of suggestions when the caller gives none.
	DefaultLimit = 8
	// MaxLimit caps a suggestion list.
	MaxLimit = 50
	// PopularWindow is how far back popular queries are counted.
	PopularWindow = 30 * 24 * time.Hour

	maxGenerated    = 8
	maxRelated      = 5
	relatedCards    = 10
	generatedSample = 50
)

// List is a set of suggestions and where they came from.
type List struct {
	Suggestions []string
	Kind        Kind
}

// Service suggests search queries.
type Service struct {
	log   QueryLog
	cards CardReader
	now   func() time.Time
}

// New creates a suggestion service.
func New(log QueryLog, cards CardReader) *Service {
	return &Service{log: log, cards: cards, now: time.Now}
}

// Suggest returns up to limit suggestions of the given kind.
// Failures and empty results fall back to the static list.
func (s *Service) Suggest(ctx context.Context, kind Kind, limit int) List {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	var (
		out []string
		err error
	)
	switch kind {
	case KindPopular:
		out, err = s.popular(ctx, limit)
	case KindGenerated:
		out, err = s.generated(ctx)
	default:
		kind = KindMixed
		out, err = s.mixed(ctx, limit)
	}
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to build suggestions, serving static list",
			zap.String("kind", string(kind)), zap.Error(err))
		return List{Suggestions: Static(DefaultLimit), Kind: KindFallback}
	}
	if len(out) == 0 {
		out = Static(limit)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return List{Suggestions: out, Kind: kind}
}

func (s *Service) popular(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	top, err := s.log.Popular(ctx, s.now().Add(-PopularWindow), limit)
	if err != nil {
		return nil, fmt.Errorf("popular queries: %w", err)
	}
	out := make([]string, 0, len(top))
	for _, p := range top {
		out = append(out, p.Query)
	}
	return out, nil
}

// generated derives ideas from the catalog: seed ideas, feature headings and best-for tags.
func (s *Service) generated(ctx context.Context) ([]string, error) {
	cards, err := s.cards.Published(ctx, generatedSample)
	if err != nil {
		return nil, fmt.Errorf("load cards: %w", err)
	}

	var headings, bestFor []string
	seenHeading := map[string]bool{}
	seenBestFor := map[string]bool{}
	for i := range cards {
		for _, f := range cards[i].Features {
			if f.Heading != "" && !seenHeading[f.Heading] {
				seenHeading[f.Heading] = true
				headings = append(headings, f.Heading)
			}
		}
		if b := cards[i].BestFor; b != "" && !seenBestFor[b] {
			seenBestFor[b] = true
			bestFor = append(bestFor, b)
		}
	}

	out := append([]string(nil), seedIdeas...)
	for _, h := range firstN(headings, 3) {
		out = append(out, "Cards with "+strings.ToLower(h))
	}
	for _, b := range firstN(bestFor, 3) {
		out = append(out, "Best cards for "+strings.ToLower(b))
	}
	return firstN(out, maxGenerated), nil
}

func (s *Service) mixed(ctx context.Context, limit int) ([]string, error) {
	gen, err := s.generated(ctx)
	if err != nil {
		return nil, err
	}
	pop, err := s.popular(ctx, limit/2)
	if err != nil {
		return nil, err
	}
	combined := append(firstN(gen, (limit+1)/2), pop...)
	return firstN(dedupe(combined), limit), nil
}

// Related logs query as user generated and suggests neighbouring categories.
func (s *Service) Related(ctx context.Context, query, userID, sessionID string) ([]string, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, domain.ErrInvalidQuery
	}

	if entry, err := domql.New(q, domql.TypeUserGenerated, nil); err == nil {
		if err := s.log.Append(ctx, entry.WithOwner(userID, sessionID)); err != nil {
			metrics.QueryLogFailuresTotal.Inc()
			logger.FromContext(ctx).Warn("Failed to log suggestion query", zap.Error(err))
		}
	}

	if !hasKeyword(q) {
		return Static(maxRelated), nil
	}

	cards, err := s.cards.KeywordSearch(ctx, q, relatedCards)
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to load related cards", zap.Error(err))
		return Static(maxRelated), nil
	}

	lq := strings.ToLower(q)
	var categories []string
	for i := range cards {
		c := &cards[i]
		if !matchesHeadline(c, lq) {
			continue
		}
		categories = append(categories, c.BestFor, c.Type)
		if c.Type != "" && c.EmploymentType != "" {
			categories = append(categories, fmt.Sprintf("%s cards for %s", c.Type, strings.ToLower(c.EmploymentType)))
		}
	}

	var out []string
	for _, cat := range dedupe(categories) {
		if cat == "" || strings.Contains(strings.ToLower(cat), lq) {
			continue
		}
		out = append(out, "Best "+strings.ToLower(cat)+" credit cards")
		if len(out) == maxRelated {
			break
		}
	}
	if len(out) == 0 {
		return Static(maxRelated), nil
	}
	return out, nil
}

// matchesHeadline reports whether the lowercased query occurs in the card's name, best-for or type.
func matchesHeadline(c *domcard.Card, lq string) bool {
	return strings.Contains(strings.ToLower(c.Name), lq) ||
		strings.Contains(strings.ToLower(c.BestFor), lq) ||
		strings.Contains(strings.ToLower(c.Type), lq)
}

func hasKeyword(q string) bool {
	for _, w := range strings.Fields(q) {
		if len(w) > 2 {
			return true
		}
	}
	return false
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func dedupe(s []string) []string {
	seen := make(map[string]bool, len(s))
	out := make([]string, 0, len(s))
	for _, v := range s {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
