package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kailas-cloud/cardex/internal/domain"
	domcard "github.com/kailas-cloud/cardex/internal/domain/card"
	"github.com/kailas-cloud/cardex/internal/domain/search/keyword"
)

// UpsertCard inserts or replaces a card. Insertion order is the fetch order.
func (s *Store) UpsertCard(_ context.Context, c domcard.Card) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c = cloneCard(c)
	for i := range c.Features {
		c.Features[i].CardID = c.ID
	}
	c.SortFeatures()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[c.ID]; !ok {
		s.order = append(s.order, c.ID)
	}
	s.cards[c.ID] = c
	return nil
}

// UpsertVector stores the embedding of one textual view of a card.
func (s *Store) UpsertVector(_ context.Context, v domcard.Vector) error {
	if len(v.Values) == 0 {
		return fmt.Errorf("%w: empty vector for card %s", domain.ErrInvalidRequest, v.CardID)
	}
	v.Values = append([]float32(nil), v.Values...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors[vectorKey{cardID: v.CardID, contentType: v.ContentType}] = v
	return nil
}

// published returns published cards in insertion order. Caller holds the lock.
func (s *Store) published() []domcard.Card {
	out := make([]domcard.Card, 0, len(s.order))
	for _, id := range s.order {
		c := s.cards[id]
		if c.Published {
			out = append(out, cloneCard(c))
		}
	}
	return out
}

func (s *Store) filtered(f domcard.Filters) []domcard.Card {
	s.mu.RLock()
	all := s.published()
	s.mu.RUnlock()

	out := all[:0]
	for _, c := range all {
		if matchFilters(&c, f) {
			out = append(out, c)
		}
	}
	return out
}

func matchFilters(c *domcard.Card, f domcard.Filters) bool {
	if f.Type != "" && !containsFold(c.Type, f.Type) {
		return false
	}
	if f.EmploymentType != "" && !containsFold(c.EmploymentType, f.EmploymentType) {
		return false
	}
	if f.NetworkType != "" && !containsFold(c.NetworkType, f.NetworkType) {
		return false
	}
	if f.BestFor != "" && !containsFold(c.BestFor, f.BestFor) {
		return false
	}
	if f.MinIncome > 0 && c.MinMonthlyIncome < f.MinIncome {
		return false
	}
	if f.MaxIncome > 0 && c.MinMonthlyIncome > f.MaxIncome {
		return false
	}
	if f.Featured != nil && c.Featured != *f.Featured {
		return false
	}
	if f.MinRating > 0 && c.Rating < f.MinRating {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func sortCards(cards []domcard.Card, by domcard.SortBy) {
	var less func(a, b *domcard.Card) bool
	switch by {
	case domcard.SortRating:
		less = func(a, b *domcard.Card) bool {
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
			return a.ReviewCount > b.ReviewCount
		}
	case domcard.SortNewest:
		less = func(a, b *domcard.Card) bool { return a.CreatedAt.After(b.CreatedAt) }
	case domcard.SortIncomeLow:
		less = func(a, b *domcard.Card) bool { return a.MinMonthlyIncome < b.MinMonthlyIncome }
	case domcard.SortIncomeHigh:
		less = func(a, b *domcard.Card) bool { return a.MinMonthlyIncome > b.MinMonthlyIncome }
	case domcard.SortName:
		less = func(a, b *domcard.Card) bool { return a.Name < b.Name }
	default:
		less = func(a, b *domcard.Card) bool {
			if a.Featured != b.Featured {
				return a.Featured
			}
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
			return a.ReviewCount > b.ReviewCount
		}
	}
	sort.SliceStable(cards, func(i, j int) bool { return less(&cards[i], &cards[j]) })
}

func page(cards []domcard.Card, offset, limit int) []domcard.Card {
	if offset >= len(cards) {
		return []domcard.Card{}
	}
	end := len(cards)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return cards[offset:end]
}

// List returns one page of published cards.
func (s *Store) List(_ context.Context, opts domcard.ListOptions) ([]domcard.Card, error) {
	cards := s.filtered(opts.Filters)
	sortCards(cards, opts.Sort)
	return page(cards, opts.Offset(), opts.PageSize), nil
}

// Count returns the number of published cards matching filters.
func (s *Store) Count(_ context.Context, f domcard.Filters) (int, error) {
	return len(s.filtered(f)), nil
}

// Get returns a published card.
func (s *Store) Get(_ context.Context, id string) (domcard.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cards[id]
	if !ok || !c.Published {
		return domcard.Card{}, domain.ErrCardNotFound
	}
	return cloneCard(c), nil
}

// GetMany returns published cards by ID, featured first then by rating.
func (s *Store) GetMany(_ context.Context, ids []string) ([]domcard.Card, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	s.mu.RLock()
	all := s.published()
	s.mu.RUnlock()

	out := []domcard.Card{}
	for _, c := range all {
		if want[c.ID] {
			out = append(out, c)
		}
	}
	sortCards(out, domcard.SortFeatured)
	return out, nil
}

// Featured returns featured published cards by rating.
func (s *Store) Featured(_ context.Context, limit int) ([]domcard.Card, error) {
	featured := true
	cards := s.filtered(domcard.Filters{Featured: &featured})
	sortCards(cards, domcard.SortRating)
	return page(cards, 0, limit), nil
}

// Published returns published cards in catalog order. limit <= 0 returns all.
func (s *Store) Published(_ context.Context, limit int) ([]domcard.Card, error) {
	cards := s.filtered(domcard.Filters{})
	sortCards(cards, domcard.SortFeatured)
	return page(cards, 0, limit), nil
}

// KeywordSearch matches the literal query against names, categories and features.
func (s *Store) KeywordSearch(_ context.Context, query string, limit int) ([]domcard.Card, error) {
	s.mu.RLock()
	all := s.published()
	s.mu.RUnlock()

	out := []domcard.Card{}
	for i := range all {
		if keyword.Match(&all[i], query) {
			out = append(out, all[i])
		}
	}
	keyword.Sort(out)
	return page(out, 0, limit), nil
}

// Candidates returns every published card with its vector of contentType.
func (s *Store) Candidates(_ context.Context, contentType string) ([]domcard.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domcard.Candidate{}
	for _, c := range s.published() {
		v, ok := s.vectors[vectorKey{cardID: c.ID, contentType: contentType}]
		if !ok {
			continue
		}
		out = append(out, domcard.Candidate{Card: c, Vector: append([]float32(nil), v.Values...)})
	}
	return out, nil
}

// FilterOptions lists distinct values for the catalog filters.
func (s *Store) FilterOptions(_ context.Context) (domcard.FilterOptions, error) {
	s.mu.RLock()
	all := s.published()
	s.mu.RUnlock()

	return domcard.FilterOptions{
		Types:           distinct(all, func(c *domcard.Card) string { return c.Type }),
		EmploymentTypes: distinct(all, func(c *domcard.Card) string { return c.EmploymentType }),
		NetworkTypes:    distinct(all, func(c *domcard.Card) string { return c.NetworkType }),
		BestFor:         distinct(all, func(c *domcard.Card) string { return c.BestFor }),
		IncomeRanges:    domcard.IncomeRanges(),
	}, nil
}

func distinct(cards []domcard.Card, field func(*domcard.Card) string) []domcard.Option {
	seen := make(map[string]bool)
	var values []string
	for i := range cards {
		v := field(&cards[i])
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	sort.Strings(values)
	opts := make([]domcard.Option, len(values))
	for i, v := range values {
		opts[i] = domcard.Option{Label: v, Value: v}
	}
	return opts
}

// Stats summarizes the published catalog with the five top-rated cards.
func (s *Store) Stats(_ context.Context) (domcard.Stats, error) {
	s.mu.RLock()
	all := s.published()
	s.mu.RUnlock()

	var st domcard.Stats
	var sum float64
	for _, c := range all {
		st.TotalCards++
		if c.Featured {
			st.FeaturedCards++
		}
		sum += c.Rating
	}
	if st.TotalCards > 0 {
		st.AverageRating = sum / float64(st.TotalCards)
	}
	sortCards(all, domcard.SortRating)
	st.TopRated = page(all, 0, 5)
	return st, nil
}
