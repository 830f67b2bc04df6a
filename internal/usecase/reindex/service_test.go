package reindex

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/kailas-cloud/cardex/internal/domain"
	domcard "github.com/kailas-cloud/cardex/internal/domain/card"
	"github.com/kailas-cloud/cardex/internal/repository/memory"
)

// --- Mocks ---

// mockEmbedder fails for texts containing failOn and returns an empty vector for emptyOn.
type mockEmbedder struct {
	mu      sync.Mutex
	failOn  string
	emptyOn string
	texts   []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()
	if m.failOn != "" && strings.Contains(text, m.failOn) {
		return domain.EmbeddingResult{}, domain.ErrEmbeddingProviderError
	}
	if m.emptyOn != "" && strings.Contains(text, m.emptyOn) {
		return domain.EmbeddingResult{Embedding: []float32{}}, nil
	}
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text)), 1}}, nil
}

type mockBatchEmbedder struct {
	mockEmbedder
	batches int
}

func (m *mockBatchEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.mu.Lock()
	m.batches++
	m.mu.Unlock()
	return domain.BatchFallback(ctx, &m.mockEmbedder, texts)
}

type failingRepo struct{}

func (failingRepo) Published(context.Context, int) ([]domcard.Card, error) {
	return nil, errors.New("connection refused")
}

func (failingRepo) UpsertVector(context.Context, domcard.Vector) error { return nil }

func seededStore(t *testing.T, n int) *memory.Store {
	t.Helper()
	st := memory.New()
	for i := 0; i < n; i++ {
		c := domcard.Card{ID: fmt.Sprintf("c%02d", i), Name: fmt.Sprintf("Card %02d", i), Published: true}
		if err := st.UpsertCard(context.Background(), c); err != nil {
			t.Fatal(err)
		}
	}
	if err := st.UpsertCard(context.Background(), domcard.Card{ID: "draft", Name: "Draft", Published: false}); err != nil {
		t.Fatal(err)
	}
	return st
}

// --- Tests ---

func TestRun_IndexesPublishedCards(t *testing.T) {
	st := seededStore(t, 10)
	emb := &mockBatchEmbedder{}
	res, err := New(st, emb, Config{Workers: 3, BatchSize: 4, Model: "m"}).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 10 || res.Indexed != 10 || res.Failed != 0 {
		t.Errorf("result = %+v", res)
	}
	if emb.batches != 3 {
		t.Errorf("batches = %d, want 3", emb.batches)
	}

	cands, _ := st.Candidates(context.Background(), domcard.ContentSummary)
	if len(cands) != 10 {
		t.Errorf("stored vectors = %d", len(cands))
	}
	for _, text := range emb.texts {
		if strings.Contains(text, "Draft") {
			t.Error("unpublished card was embedded")
		}
	}
}

func TestRun_EmbedsSummaryText(t *testing.T) {
	st := seededStore(t, 1)
	emb := &mockEmbedder{}
	if _, err := New(st, emb, Config{}).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	c, _ := st.Get(context.Background(), "c00")
	if len(emb.texts) != 1 || emb.texts[0] != c.SummaryText() {
		t.Errorf("embedded %q", emb.texts)
	}
}

func TestRun_PerCardFailuresAreCounted(t *testing.T) {
	st := seededStore(t, 4)
	emb := &mockEmbedder{emptyOn: "Card 02"}
	res, err := New(st, emb, Config{BatchSize: 1}).Run(context.Background())
	if err != nil {
		t.Fatalf("per-card failure must not abort: %v", err)
	}
	if res.Indexed != 3 || res.Failed != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestRun_BatchFailure(t *testing.T) {
	st := seededStore(t, 4)
	emb := &mockEmbedder{failOn: "Card 01"}
	res, err := New(st, emb, Config{BatchSize: 2, Workers: 1}).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Indexed != 2 || res.Failed != 2 {
		t.Errorf("result = %+v", res)
	}
}

func TestRun_ListFailure(t *testing.T) {
	if _, err := New(failingRepo{}, &mockEmbedder{}, Config{}).Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := New(seededStore(t, 3), &mockEmbedder{}, Config{}).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res.Indexed != 0 {
		t.Errorf("indexed = %d", res.Indexed)
	}
}
