package chi

import (
	"net/http"
	"strings"

	"github.com/kailas-cloud/cardex/internal/usecase/suggestion"
)

// Suggestions handles GET /api/suggestions?type=&limit=.
func (s *Server) Suggestions(w http.ResponseWriter, r *http.Request) {
	var (
		kind  *string
		limit *int
	)
	if err := bindAll(r, []queryParam{
		{"type", &kind},
		{"limit", &limit},
	}); err != nil {
		writeParamError(w, err)
		return
	}

	list := s.svc.Suggestions.Suggest(r.Context(), suggestion.ParseKind(deref(kind)), deref(limit))
	writeJSON(w, http.StatusOK, SuggestionsDTO{
		Suggestions: nonNil(list.Suggestions),
		Type:        string(list.Kind),
	})
}

// RelatedRequest is the body of POST /api/suggestions.
type RelatedRequest struct {
	Query     string `json:"query"`
	UserID    string `json:"userId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// RelatedSuggestions handles POST /api/suggestions.
func (s *Server) RelatedSuggestions(w http.ResponseWriter, r *http.Request) {
	var body RelatedRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeBadBody(w, err)
		return
	}

	related, err := s.svc.Suggestions.Related(r.Context(), body.Query, body.UserID, body.SessionID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RelatedSuggestionsDTO{
		Query:              strings.TrimSpace(body.Query),
		RelatedSuggestions: nonNil(related),
		Count:              len(related),
	})
}
