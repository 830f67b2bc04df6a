package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/kailas-cloud/cardex/internal/domain"
	"github.com/kailas-cloud/cardex/internal/domain/card"
	"github.com/kailas-cloud/cardex/internal/domain/querylog"
	"github.com/kailas-cloud/cardex/internal/domain/search/request"
	"github.com/kailas-cloud/cardex/internal/domain/search/result"
)

func newService(repo *mockRepo, log *mockLog, emb *mockEmbedder) *Service {
	return New(repo, log, NewQueryEmbedder(emb, time.Second), card.ContentSummary)
}

func mustRequest(t *testing.T, query string, limit int, threshold float64) request.Request {
	t.Helper()
	req, err := request.New(query, &limit, &threshold, request.APIDefaults())
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return req
}

func resultIDs(rs []result.Result) []string {
	out := make([]string, len(rs))
	for i := range rs {
		out[i] = rs[i].Card().ID
	}
	return out
}

func TestSearch_EndToEndSemantic(t *testing.T) {
	repo := &mockRepo{candidates: []card.Candidate{
		candidate(newCard("A", "Platinum Travel Card", true), 1, 0),
		candidate(newCard("B", "Basic Cashback Card", true), 0, 1),
	}}
	svc := newService(repo, &mockLog{}, &mockEmbedder{vec: []float32{1, 0}})

	resp, err := svc.Search(context.Background(), mustRequest(t, "travel", 10, 0.7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.SearchType != result.TypeSemantic {
		t.Errorf("searchType = %s, want semantic", resp.SearchType)
	}
	if resp.TotalResults() != 1 {
		t.Fatalf("expected 1 result, got %d", resp.TotalResults())
	}
	r := resp.Results[0]
	if r.Card().ID != "A" || r.Score() != 1.0 || r.Reason() != result.ReasonSemantic {
		t.Errorf("unexpected result: id=%s score=%v reason=%s", r.Card().ID, r.Score(), r.Reason())
	}
	if repo.lastContentType != card.ContentSummary {
		t.Errorf("content type = %q", repo.lastContentType)
	}
	if repo.keywordCalled {
		t.Error("keyword matcher must not run when semantic results exist")
	}
}

func TestSearch_KeywordLiteralSubstring(t *testing.T) {
	repo := &mockRepo{cards: []card.Card{
		newCard("1", "Gold Rewards Card", true),
		newCard("2", "Travel Elite Card", true),
	}}
	svc := newService(repo, &mockLog{}, &mockEmbedder{vec: []float32{}})

	resp, err := svc.Search(context.Background(), mustRequest(t, "travel", 10, 0.7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.SearchType != result.TypeKeyword {
		t.Errorf("searchType = %s, want keyword", resp.SearchType)
	}
	if ids := resultIDs(resp.Results); len(ids) != 1 || ids[0] != "2" {
		t.Fatalf("results = %v, want [2]", ids)
	}
	r := resp.Results[0]
	if r.Score() != result.KeywordScore || r.Reason() != result.ReasonKeyword {
		t.Errorf("keyword result score=%v reason=%s", r.Score(), r.Reason())
	}
}

func TestSearch_EmbeddingFailureUsesKeywordOnly(t *testing.T) {
	tests := []struct {
		name string
		emb  *mockEmbedder
	}{
		{"empty vector", &mockEmbedder{vec: nil}},
		{"provider error", &mockEmbedder{err: domain.ErrEmbeddingProviderError}},
		{"quota", &mockEmbedder{err: fmt.Errorf("quota: %w", domain.ErrRateLimited)}},
		{"daily budget spent", &mockEmbedder{err: fmt.Errorf("embed: %w", domain.ErrEmbeddingQuotaExceeded)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockRepo{
				candidates: []card.Candidate{candidate(newCard("A", "Travel", true), 1, 0)},
				cards:      []card.Card{newCard("A", "Travel", true)},
			}
			svc := newService(repo, &mockLog{}, tc.emb)

			resp, err := svc.Search(context.Background(), mustRequest(t, "travel", 10, 0.7))
			if err != nil {
				t.Fatalf("provider failure must not surface: %v", err)
			}
			if resp.SearchType != result.TypeKeyword {
				t.Errorf("searchType = %s, want keyword", resp.SearchType)
			}
			for _, r := range resp.Results {
				if r.Reason() != result.ReasonKeyword {
					t.Errorf("unexpected semantic result %s", r.Card().ID)
				}
			}
		})
	}
}

func TestSearch_EmbeddingTimeoutUsesKeyword(t *testing.T) {
	repo := &mockRepo{cards: []card.Card{newCard("1", "Travel Elite", true)}}
	emb := &mockEmbedder{block: true}
	svc := New(repo, &mockLog{}, NewQueryEmbedder(emb, 20*time.Millisecond), "")

	resp, err := svc.Search(context.Background(), mustRequest(t, "travel", 10, 0.7))
	if err != nil {
		t.Fatalf("timeout must not surface: %v", err)
	}
	if resp.SearchType != result.TypeKeyword || resp.TotalResults() != 1 {
		t.Errorf("resp = %s/%d", resp.SearchType, resp.TotalResults())
	}
}

func TestSearch_EmbeddingFailureDiscardsCandidateError(t *testing.T) {
	repo := &mockRepo{
		candidatesErr: errors.New("connection refused"),
		cards:         []card.Card{newCard("1", "Travel", true)},
	}
	svc := newService(repo, &mockLog{}, &mockEmbedder{err: errors.New("down")})

	resp, err := svc.Search(context.Background(), mustRequest(t, "travel", 10, 0.7))
	if err != nil {
		t.Fatalf("speculative fetch error must be discarded: %v", err)
	}
	if resp.SearchType != result.TypeKeyword {
		t.Errorf("searchType = %s", resp.SearchType)
	}
}

func TestSearch_NothingAboveThresholdFallsBack(t *testing.T) {
	repo := &mockRepo{
		candidates: []card.Candidate{
			candidate(newCard("A", "Gold Card", true), 0, 1),
			candidate(newCard("B", "Travel Card", true), 0.1, 1),
		},
		cards: []card.Card{newCard("A", "Gold Card", true), newCard("B", "Travel Card", true)},
	}
	svc := newService(repo, &mockLog{}, &mockEmbedder{vec: []float32{1, 0}})

	resp, err := svc.Search(context.Background(), mustRequest(t, "travel", 10, 0.7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.SearchType != result.TypeKeywordFallback {
		t.Errorf("searchType = %s, want keyword_fallback", resp.SearchType)
	}
	if ids := resultIDs(resp.Results); len(ids) != 1 || ids[0] != "B" {
		t.Errorf("results = %v, want [B]", ids)
	}
	if !resp.SearchType.IsFallback() {
		t.Error("keyword_fallback must report IsFallback")
	}
}

func TestSearch_ThresholdMonotonic(t *testing.T) {
	var cands []card.Candidate
	for i := 0; i < 20; i++ {
		angle := float64(i) * math.Pi / 40
		cands = append(cands, candidate(newCard(fmt.Sprint(i), "c", true),
			float32(math.Cos(angle)), float32(math.Sin(angle))))
	}
	repo := &mockRepo{candidates: cands}
	svc := newService(repo, &mockLog{}, &mockEmbedder{vec: []float32{1, 0}})

	low, err := svc.Search(context.Background(), mustRequest(t, "q", 100, 0.5))
	if err != nil {
		t.Fatal(err)
	}
	high, err := svc.Search(context.Background(), mustRequest(t, "q", 100, 0.8))
	if err != nil {
		t.Fatal(err)
	}
	if high.TotalResults() > low.TotalResults() {
		t.Fatalf("raising threshold increased results: %d > %d", high.TotalResults(), low.TotalResults())
	}
	lowSet := make(map[string]bool)
	for _, id := range resultIDs(low.Results) {
		lowSet[id] = true
	}
	for _, id := range resultIDs(high.Results) {
		if !lowSet[id] {
			t.Errorf("result %s at 0.8 missing at 0.5", id)
		}
	}
}

func TestSearch_PublishedOnly(t *testing.T) {
	hidden := newCard("H", "Travel Hidden", false)
	repo := &mockRepo{
		candidates: []card.Candidate{candidate(hidden, 1, 0), candidate(newCard("V", "Visible", true), 1, 0)},
		cards:      []card.Card{hidden},
	}

	semantic, err := newService(repo, &mockLog{}, &mockEmbedder{vec: []float32{1, 0}}).
		Search(context.Background(), mustRequest(t, "travel", 10, 0.7))
	if err != nil {
		t.Fatal(err)
	}
	if ids := resultIDs(semantic.Results); len(ids) != 1 || ids[0] != "V" {
		t.Errorf("semantic results = %v, want [V]", ids)
	}

	kw, err := newService(repo, &mockLog{}, &mockEmbedder{}).
		Search(context.Background(), mustRequest(t, "travel", 10, 0.7))
	if err != nil {
		t.Fatal(err)
	}
	if kw.TotalResults() != 0 {
		t.Errorf("keyword results = %v, want none", resultIDs(kw.Results))
	}
}

func TestSearch_LimitAndOrder(t *testing.T) {
	var cands []card.Candidate
	for i := 0; i < 10; i++ {
		cands = append(cands, candidate(newCard(fmt.Sprint(i), "c", true), 1, float32(i)/20))
	}
	repo := &mockRepo{candidates: cands}
	svc := newService(repo, &mockLog{}, &mockEmbedder{vec: []float32{1, 0}})

	resp, err := svc.Search(context.Background(), mustRequest(t, "q", 3, 0.5))
	if err != nil {
		t.Fatal(err)
	}
	if resp.TotalResults() != 3 {
		t.Fatalf("expected 3 results, got %d", resp.TotalResults())
	}
	if ids := resultIDs(resp.Results); ids[0] != "0" || ids[1] != "1" || ids[2] != "2" {
		t.Errorf("order = %v, want [0 1 2]", ids)
	}
	for i := 1; i < len(resp.Results); i++ {
		if resp.Results[i].Score() > resp.Results[i-1].Score() {
			t.Errorf("scores not descending at %d", i)
		}
	}
}

func TestSearch_TiesKeepFetchOrder(t *testing.T) {
	repo := &mockRepo{candidates: []card.Candidate{
		candidate(newCard("x", "c", true), 1, 0),
		candidate(newCard("y", "c", true), 2, 0),
		candidate(newCard("z", "c", true), 3, 0),
	}}
	svc := newService(repo, &mockLog{}, &mockEmbedder{vec: []float32{1, 0}})

	resp, err := svc.Search(context.Background(), mustRequest(t, "q", 10, 0.7))
	if err != nil {
		t.Fatal(err)
	}
	if ids := resultIDs(resp.Results); len(ids) != 3 || ids[0] != "x" || ids[1] != "y" || ids[2] != "z" {
		t.Errorf("tie order = %v, want [x y z]", ids)
	}
}

func TestSearch_EmptyQueryRejectedWithoutIO(t *testing.T) {
	for _, q := range []string{"", "   "} {
		t.Run(fmt.Sprintf("%q", q), func(t *testing.T) {
			if _, err := request.New(q, nil, nil, request.APIDefaults()); !errors.Is(err, domain.ErrInvalidQuery) {
				t.Errorf("request.New(%q) = %v, want ErrInvalidQuery", q, err)
			}

			repo := &mockRepo{}
			log := &mockLog{}
			emb := &mockEmbedder{vec: []float32{1}}
			_, err := newService(repo, log, emb).Search(context.Background(), request.Request{})
			if !errors.Is(err, domain.ErrInvalidQuery) {
				t.Fatalf("expected ErrInvalidQuery, got %v", err)
			}
			if emb.called || repo.storeCalled() || len(log.entries) != 0 {
				t.Error("no I/O allowed for an empty query")
			}
		})
	}
}

func TestSearch_CandidateFetchFailure(t *testing.T) {
	repo := &mockRepo{candidatesErr: errors.New("connection refused")}
	svc := newService(repo, &mockLog{}, &mockEmbedder{vec: []float32{1, 0}})

	_, err := svc.Search(context.Background(), mustRequest(t, "q", 10, 0.7))
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestSearch_KeywordFailure(t *testing.T) {
	repo := &mockRepo{keywordErr: errors.New("connection refused")}
	svc := newService(repo, &mockLog{}, &mockEmbedder{})

	_, err := svc.Search(context.Background(), mustRequest(t, "q", 10, 0.7))
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestSearch_LogsQuery(t *testing.T) {
	log := &mockLog{}
	repo := &mockRepo{}
	svc := newService(repo, log, &mockEmbedder{})

	if _, err := svc.Search(context.Background(), mustRequest(t, "  fuel card ", 5, 0.6)); err != nil {
		t.Fatal(err)
	}
	if len(log.entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(log.entries))
	}
	e := log.entries[0]
	if e.Query != "fuel card" || e.Type != querylog.TypeSemanticSearch {
		t.Errorf("entry = %+v", e)
	}
	if e.Filters["limit"] != 5 || e.Filters["threshold"] != 0.6 {
		t.Errorf("filters = %v", e.Filters)
	}
	if repo.lastKeyword != "fuel card" || repo.lastLimit != 5 {
		t.Errorf("keyword call = %q/%d", repo.lastKeyword, repo.lastLimit)
	}
}

func TestSearch_LogFailureSwallowed(t *testing.T) {
	repo := &mockRepo{candidates: []card.Candidate{candidate(newCard("A", "a", true), 1, 0)}}
	log := &mockLog{err: errors.New("disk full")}
	svc := newService(repo, log, &mockEmbedder{vec: []float32{1, 0}})

	resp, err := svc.Search(context.Background(), mustRequest(t, "q", 10, 0.7))
	if err != nil {
		t.Fatalf("log failure must not surface: %v", err)
	}
	if resp.SearchType != result.TypeSemantic || resp.TotalResults() != 1 {
		t.Errorf("resp = %s/%d", resp.SearchType, resp.TotalResults())
	}
}

func TestSearch_NilLog(t *testing.T) {
	repo := &mockRepo{candidates: []card.Candidate{candidate(newCard("A", "a", true), 1, 0)}}
	svc := New(repo, nil, NewQueryEmbedder(&mockEmbedder{vec: []float32{1, 0}}, 0), "")

	if _, err := svc.Search(context.Background(), mustRequest(t, "q", 10, 0.7)); err != nil {
		t.Fatal(err)
	}
}

func TestSearch_DimensionMismatchScoresZero(t *testing.T) {
	repo := &mockRepo{
		candidates: []card.Candidate{candidate(newCard("A", "Travel", true), 1, 0, 0)},
		cards:      []card.Card{newCard("A", "Travel", true)},
	}
	svc := newService(repo, &mockLog{}, &mockEmbedder{vec: []float32{1, 0}})

	resp, err := svc.Search(context.Background(), mustRequest(t, "travel", 10, 0.0))
	if err != nil {
		t.Fatal(err)
	}
	if resp.SearchType != result.TypeSemantic || resp.Results[0].Score() != 0 {
		t.Errorf("mismatched vector should score 0 and still pass threshold 0: %s", resp.SearchType)
	}
}

func TestSearch_ResponseThreshold(t *testing.T) {
	svc := newService(&mockRepo{}, &mockLog{}, &mockEmbedder{})
	resp, err := svc.Search(context.Background(), mustRequest(t, "q", 20, 0.6))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Threshold != 0.6 || resp.Query != "q" {
		t.Errorf("resp = %+v", resp)
	}
}
