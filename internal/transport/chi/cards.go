package chi

import (
	"fmt"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/cardex/internal/domain"
	domcard "github.com/kailas-cloud/cardex/internal/domain/card"
)

// ListCards handles GET /api/cards.
func (s *Server) ListCards(w http.ResponseWriter, r *http.Request) {
	var (
		page, pageSize       *int
		sortBy               *string
		cardType, employment *string
		network, bestFor     *string
		minIncome, maxIncome *int
		featured             *bool
		minRating            *float64
	)
	if err := bindAll(r, []queryParam{
		{"page", &page},
		{"pageSize", &pageSize},
		{"sortBy", &sortBy},
		{"cardType", &cardType},
		{"employmentType", &employment},
		{"networkType", &network},
		{"bestFor", &bestFor},
		{"minIncome", &minIncome},
		{"maxIncome", &maxIncome},
		{"featured", &featured},
		{"minRating", &minRating},
	}); err != nil {
		writeParamError(w, err)
		return
	}

	opts, err := domcard.NewListOptions(deref(page), deref(pageSize), domcard.SortBy(deref(sortBy)), domcard.Filters{
		Type:           deref(cardType),
		EmploymentType: deref(employment),
		NetworkType:    deref(network),
		BestFor:        deref(bestFor),
		MinIncome:      deref(minIncome),
		MaxIncome:      deref(maxIncome),
		Featured:       featured,
		MinRating:      deref(minRating),
	})
	if err != nil {
		s.handleDomainError(w, r, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err))
		return
	}

	p, err := s.svc.Catalog.List(r.Context(), opts)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageToDTO(&p, opts.PageSize))
}

// GetCard handles GET /api/cards/{id}.
func (s *Server) GetCard(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.Catalog.Get(r.Context(), chirouter.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cardToDTO(&c))
}

// FeaturedCards handles GET /api/cards/featured.
func (s *Server) FeaturedCards(w http.ResponseWriter, r *http.Request) {
	var limit *int
	if err := bindQuery(r, "limit", &limit); err != nil {
		writeParamError(w, err)
		return
	}
	cards, err := s.svc.Catalog.Featured(r.Context(), deref(limit))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cards": cardsToDTO(cards)})
}

// FilterOptions handles GET /api/cards/filters.
func (s *Server) FilterOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := s.svc.Catalog.FilterOptions(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FilterOptionsDTO{
		CardTypes:       optionsToDTO(opts.Types),
		EmploymentTypes: optionsToDTO(opts.EmploymentTypes),
		NetworkTypes:    optionsToDTO(opts.NetworkTypes),
		BestFor:         optionsToDTO(opts.BestFor),
		IncomeRanges:    optionsToDTO(opts.IncomeRanges),
	})
}

// CatalogStats handles GET /api/cards/stats.
func (s *Server) CatalogStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Catalog.Stats(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsDTO{
		TotalCards:    st.TotalCards,
		FeaturedCards: st.FeaturedCards,
		AverageRating: st.AverageRating,
		TopRatedCards: cardsToDTO(st.TopRated),
	})
}

// CardSummary handles GET /api/cards/{id}/summary.
func (s *Server) CardSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.Advisor.Summarize(r.Context(), chirouter.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryToDTO(&sum))
}

// CompareRequest is the body of POST /api/cards/compare.
type CompareRequest struct {
	CardIDs []string `json:"cardIds"`
}

// CompareCards handles POST /api/cards/compare.
func (s *Server) CompareCards(w http.ResponseWriter, r *http.Request) {
	var body CompareRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeBadBody(w, err)
		return
	}
	cmp, err := s.svc.Advisor.Compare(r.Context(), body.CardIDs)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comparisonToDTO(&cmp))
}

// RecommendRequest is the body of POST /api/recommend.
type RecommendRequest struct {
	Query string `json:"query"`
}

// Recommend handles POST /api/recommend.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	var body RecommendRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeBadBody(w, err)
		return
	}
	rec, err := s.svc.Advisor.Recommend(r.Context(), body.Query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendationToDTO(&rec))
}
