package chi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/kailas-cloud/cardex/internal/domain"
	"github.com/kailas-cloud/cardex/internal/domain/search/request"
)

// SearchRequest is the JSON body of the search endpoints.
type SearchRequest struct {
	Query     string   `json:"query"`
	Limit     *int     `json:"limit,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
}

// SearchPost handles POST /api/search.
func (s *Server) SearchPost(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeBadBody(w, err)
		return
	}
	s.runSearch(w, r, body, s.opts.SearchDefaults)
}

// SearchGet handles GET /api/search?q=|query=&limit=&threshold=.
func (s *Server) SearchGet(w http.ResponseWriter, r *http.Request) {
	var (
		q, query  *string
		limit     *int
		threshold *float64
	)
	if err := bindAll(r, []queryParam{
		{"q", &q},
		{"query", &query},
		{"limit", &limit},
		{"threshold", &threshold},
	}); err != nil {
		writeParamError(w, err)
		return
	}
	s.runSearch(w, r, SearchRequest{
		Query:     firstNonEmpty(q, query),
		Limit:     limit,
		Threshold: threshold,
	}, s.opts.SearchDefaults)
}

// BrowseSearch handles POST /api/cards/search, the catalog page search box.
func (s *Server) BrowseSearch(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeBadBody(w, err)
		return
	}
	s.runSearch(w, r, body, s.opts.BrowseDefaults)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, body SearchRequest, defaults request.Defaults) {
	req, err := request.New(body.Query, body.Limit, body.Threshold, defaults)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := s.svc.Search.Search(ctx, req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, searchResponseToDTO(&resp))
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if total, used := usage.Tokens(); used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(total))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}
