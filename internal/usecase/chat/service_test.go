package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/cardex/internal/domain"
	domcard "github.com/kailas-cloud/cardex/internal/domain/card"
	domchat "github.com/kailas-cloud/cardex/internal/domain/chat"
	"github.com/kailas-cloud/cardex/internal/repository/memory"
)

// --- Mocks ---

type mockCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (m *mockCompleter) Complete(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.reply, m.err
}

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	st := memory.New()
	for _, c := range []domcard.Card{
		{ID: "c1", Name: "Travel Elite", BestFor: "Travel", RewardRate: "4%", Published: true, Rating: 4.5},
		{ID: "c2", Name: "Fuel Saver", BestFor: "Fuel", RewardRate: "2%", Published: true, Rating: 4.0},
		{ID: "c3", Name: "Hidden", Published: false},
	} {
		if err := st.UpsertCard(context.Background(), c); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return st
}

// --- Tests ---

func TestSend_NewSession(t *testing.T) {
	st := newStore(t)
	llm := &mockCompleter{reply: "  Try Travel Elite.  "}
	svc := New(st, st, llm, "test-model")

	reply, err := svc.Send(context.Background(), SendRequest{Message: " which card for travel? ", UserID: "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.SessionID == "" {
		t.Fatal("expected generated session ID")
	}
	if reply.Message != "Try Travel Elite." {
		t.Errorf("message = %q", reply.Message)
	}
	if reply.RelevantCardCount != 2 {
		t.Errorf("relevant cards = %d, want 2 published", reply.RelevantCardCount)
	}
	if reply.ConversationLength != 2 {
		t.Errorf("conversation length = %d", reply.ConversationLength)
	}

	msgs, _ := st.RecentMessages(context.Background(), reply.SessionID, 10)
	if len(msgs) != 2 || msgs[0].Role != domchat.RoleUser || msgs[1].Role != domchat.RoleAssistant {
		t.Fatalf("transcript = %+v", msgs)
	}
	if msgs[0].Content != "which card for travel?" {
		t.Errorf("user message not trimmed: %q", msgs[0].Content)
	}
	if msgs[1].Metadata["model"] != "test-model" {
		t.Errorf("assistant metadata = %v", msgs[1].Metadata)
	}
	if !strings.Contains(llm.prompts[0], "Travel Elite") || strings.Contains(llm.prompts[0], "Hidden") {
		t.Errorf("prompt must list published cards only:\n%s", llm.prompts[0])
	}
}

func TestSend_ContinuesSessionWithHistory(t *testing.T) {
	st := newStore(t)
	llm := &mockCompleter{reply: "ok"}
	svc := New(st, st, llm, "m")

	first, err := svc.Send(context.Background(), SendRequest{Message: "first question"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Send(context.Background(), SendRequest{Message: "second", SessionID: first.SessionID})
	if err != nil {
		t.Fatal(err)
	}
	if second.SessionID != first.SessionID {
		t.Errorf("session changed: %s -> %s", first.SessionID, second.SessionID)
	}
	if second.ConversationLength != 4 {
		t.Errorf("conversation length = %d, want 4", second.ConversationLength)
	}
	if !strings.Contains(llm.prompts[1], "user: first question") {
		t.Errorf("prompt lacks history:\n%s", llm.prompts[1])
	}
}

func TestSend_UnknownSessionIDIsCreated(t *testing.T) {
	st := newStore(t)
	svc := New(st, st, &mockCompleter{reply: "ok"}, "m")

	reply, err := svc.Send(context.Background(), SendRequest{Message: "hi", SessionID: "client-made"})
	if err != nil {
		t.Fatal(err)
	}
	if reply.SessionID != "client-made" {
		t.Errorf("session = %s", reply.SessionID)
	}
	if _, err := st.GetSession(context.Background(), "client-made"); err != nil {
		t.Errorf("session not created: %v", err)
	}
}

func TestSend_ContextCards(t *testing.T) {
	st := newStore(t)
	llm := &mockCompleter{reply: "ok"}
	svc := New(st, st, llm, "m")

	reply, err := svc.Send(context.Background(), SendRequest{Message: "compare", CardIDs: []string{"c2", "c3"}})
	if err != nil {
		t.Fatal(err)
	}
	if reply.RelevantCardCount != 1 {
		t.Errorf("relevant cards = %d, want 1", reply.RelevantCardCount)
	}
	if strings.Contains(llm.prompts[0], "Travel Elite") {
		t.Error("prompt must only list context cards")
	}
	user, _ := st.RecentMessages(context.Background(), reply.SessionID, 2)
	if _, ok := user[0].Metadata["cardIds"]; !ok {
		t.Errorf("user metadata = %v", user[0].Metadata)
	}
}

func TestSend_LLMFailureApologizes(t *testing.T) {
	for _, llm := range []*mockCompleter{
		{err: domain.ErrLLMProviderError},
		{reply: "   "},
	} {
		st := newStore(t)
		reply, err := New(st, st, llm, "m").Send(context.Background(), SendRequest{Message: "hi"})
		if err != nil {
			t.Fatalf("model failure must not surface: %v", err)
		}
		if reply.Message != Apology {
			t.Errorf("message = %q", reply.Message)
		}
	}
}

func TestSend_EmptyMessage(t *testing.T) {
	st := newStore(t)
	llm := &mockCompleter{}
	_, err := New(st, st, llm, "m").Send(context.Background(), SendRequest{Message: "  "})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if len(llm.prompts) != 0 {
		t.Error("model must not be called")
	}
}

func TestBuildPrompt_Windows(t *testing.T) {
	var history []domchat.Message
	for _, c := range []string{"m1", "m2", "m3", "m4", "m5", "m6"} {
		history = append(history, domchat.Message{Role: domchat.RoleUser, Content: c})
	}
	var cards []domcard.Card
	for i := 0; i < 30; i++ {
		cards = append(cards, domcard.Card{Name: "card"})
	}

	p := buildPrompt("q", history, cards, 20)
	if strings.Contains(p, "user: m2") || !strings.Contains(p, "user: m3") || !strings.Contains(p, "user: m6") {
		t.Errorf("expected last %d messages only:\n%s", domchat.PromptWindow, p)
	}
	if n := strings.Count(p, "- card:"); n != 20 {
		t.Errorf("prompt lists %d cards, want 20", n)
	}
}

func TestHistory(t *testing.T) {
	st := newStore(t)
	svc := New(st, st, &mockCompleter{reply: "ok"}, "m")
	ctx := context.Background()

	r, err := svc.Send(ctx, SendRequest{Message: "hi", UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}

	bySession, err := svc.History(ctx, domchat.Selector{SessionID: r.SessionID}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(bySession) != 1 || len(bySession[0].Messages) != 2 {
		t.Fatalf("history = %+v", bySession)
	}

	byUser, err := svc.History(ctx, domchat.Selector{UserID: "u1"}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(byUser) != 1 || len(byUser[0].Messages) != 1 {
		t.Fatalf("user history = %+v", byUser)
	}

	missing, err := svc.History(ctx, domchat.Selector{SessionID: "nope"}, 0)
	if err != nil || len(missing) != 0 {
		t.Errorf("missing session: %v %v", missing, err)
	}

	if _, err := svc.History(ctx, domchat.Selector{}, 0); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	st := newStore(t)
	svc := New(st, st, &mockCompleter{reply: "ok"}, "m")
	ctx := context.Background()

	a, _ := svc.Send(ctx, SendRequest{Message: "a", UserID: "u1"})
	if _, err := svc.Send(ctx, SendRequest{Message: "b", UserID: "u1"}); err != nil {
		t.Fatal(err)
	}

	if n, err := svc.Delete(ctx, domchat.Selector{SessionID: a.SessionID}); err != nil || n != 1 {
		t.Fatalf("delete session: %d %v", n, err)
	}
	if _, err := svc.Delete(ctx, domchat.Selector{SessionID: a.SessionID}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if n, err := svc.Delete(ctx, domchat.Selector{UserID: "u1"}); err != nil || n != 1 {
		t.Errorf("delete by user: %d %v", n, err)
	}
}
