package catalog

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	domcard "github.com/kailas-cloud/cardex/internal/domain/card"
)

// DefaultFeaturedLimit caps the featured list when the caller gives no limit.
const DefaultFeaturedLimit = 6

// Service serves the browsable card catalog.
type Service struct {
	repo Repository
}

// New creates a catalog service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns one page of published cards. The page and the total count are fetched in parallel.
func (s *Service) List(ctx context.Context, opts domcard.ListOptions) (domcard.Page, error) {
	var (
		cards []domcard.Card
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cards, err = s.repo.List(gctx, opts)
		if err != nil {
			return fmt.Errorf("list cards: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, opts.Filters)
		if err != nil {
			return fmt.Errorf("count cards: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return domcard.Page{}, err
	}
	return domcard.NewPage(cards, total, opts), nil
}

// Get returns a published card with its features.
func (s *Service) Get(ctx context.Context, id string) (domcard.Card, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return domcard.Card{}, fmt.Errorf("get card %s: %w", id, err)
	}
	return c, nil
}

// GetMany returns the published cards among ids. Unknown ids are skipped.
func (s *Service) GetMany(ctx context.Context, ids []string) ([]domcard.Card, error) {
	cards, err := s.repo.GetMany(ctx, dedupe(ids))
	if err != nil {
		return nil, fmt.Errorf("get cards: %w", err)
	}
	return cards, nil
}

// Featured returns the best rated featured cards.
func (s *Service) Featured(ctx context.Context, limit int) ([]domcard.Card, error) {
	if limit <= 0 {
		limit = DefaultFeaturedLimit
	}
	if limit > domcard.MaxPageSize {
		limit = domcard.MaxPageSize
	}
	cards, err := s.repo.Featured(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("featured cards: %w", err)
	}
	return cards, nil
}

// FilterOptions lists the values the catalog can be filtered by.
func (s *Service) FilterOptions(ctx context.Context) (domcard.FilterOptions, error) {
	opts, err := s.repo.FilterOptions(ctx)
	if err != nil {
		return domcard.FilterOptions{}, fmt.Errorf("filter options: %w", err)
	}
	if len(opts.IncomeRanges) == 0 {
		opts.IncomeRanges = domcard.IncomeRanges()
	}
	return opts, nil
}

// Stats returns catalog totals and the top rated cards.
func (s *Service) Stats(ctx context.Context) (domcard.Stats, error) {
	st, err := s.repo.Stats(ctx)
	if err != nil {
		return domcard.Stats{}, fmt.Errorf("catalog stats: %w", err)
	}
	return st, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
