package search

import (
	"context"
	"sync"

	"github.com/kailas-cloud/cardex/internal/domain"
	"github.com/kailas-cloud/cardex/internal/domain/card"
	"github.com/kailas-cloud/cardex/internal/domain/querylog"
	"github.com/kailas-cloud/cardex/internal/domain/search/keyword"
)

// --- Mocks ---

type mockRepo struct {
	mu            sync.Mutex
	candidates    []card.Candidate
	candidatesErr error
	cards         []card.Card
	keywordErr    error

	candidatesCalled bool
	keywordCalled    bool
	lastContentType  string
	lastKeyword      string
	lastLimit        int
}

func (m *mockRepo) Candidates(_ context.Context, contentType string) ([]card.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candidatesCalled = true
	m.lastContentType = contentType
	return m.candidates, m.candidatesErr
}

// KeywordSearch mimics the store: literal match over published cards, ordered and limited.
func (m *mockRepo) KeywordSearch(_ context.Context, query string, limit int) ([]card.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keywordCalled = true
	m.lastKeyword = query
	m.lastLimit = limit
	if m.keywordErr != nil {
		return nil, m.keywordErr
	}
	var out []card.Card
	for i := range m.cards {
		if keyword.Match(&m.cards[i], query) {
			out = append(out, m.cards[i])
		}
	}
	keyword.Sort(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockRepo) storeCalled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.candidatesCalled || m.keywordCalled
}

type mockLog struct {
	entries []querylog.Entry
	err     error
}

func (m *mockLog) Append(_ context.Context, e querylog.Entry) error {
	m.entries = append(m.entries, e)
	return m.err
}

type mockEmbedder struct {
	vec    []float32
	err    error
	block  bool
	called bool
}

func (m *mockEmbedder) Embed(ctx context.Context, _ string) (domain.EmbeddingResult, error) {
	m.called = true
	if m.block {
		<-ctx.Done()
		return domain.EmbeddingResult{}, ctx.Err()
	}
	return domain.EmbeddingResult{Embedding: m.vec}, m.err
}

func newCard(id, name string, published bool) card.Card {
	return card.Card{ID: id, Name: name, Published: published}
}

func candidate(c card.Card, vec ...float32) card.Candidate {
	return card.Candidate{Card: c, Vector: vec}
}
