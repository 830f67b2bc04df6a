package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cardex/internal/domain"
	domcard "github.com/kailas-cloud/cardex/internal/domain/card"
	domchat "github.com/kailas-cloud/cardex/internal/domain/chat"
	"github.com/kailas-cloud/cardex/internal/logger"
	"github.com/kailas-cloud/cardex/internal/metrics"
)

const (
	// DefaultContextCards is how many catalog cards back a reply when the user names none.
	DefaultContextCards = 50
	// DefaultPromptCards caps the cards listed in the prompt.
	DefaultPromptCards = 20
	// DefaultHistoryLimit caps messages per session in History.
	DefaultHistoryLimit = 20
	// MaxUserSessions caps sessions returned for one user.
	MaxUserSessions = 10
)

// SendRequest is one user turn.
type SendRequest struct {
	Message   string
	SessionID string
	UserID    string
	CardIDs   []string
}

// Reply is the assistant's answer to one turn.
type Reply struct {
	SessionID          string
	Message            string
	Timestamp          time.Time
	RelevantCardCount  int
	ConversationLength int
}

// Service runs card advisor conversations.
type Service struct {
	repo         Repository
	cards        CardReader
	llm          domain.Completer
	model        string
	contextCards int
	promptCards  int
	now          func() time.Time
}

// New creates a chat service. model is recorded in assistant message metadata.
func New(repo Repository, cards CardReader, llm domain.Completer, model string) *Service {
	return &Service{
		repo:         repo,
		cards:        cards,
		llm:          llm,
		model:        model,
		contextCards: DefaultContextCards,
		promptCards:  DefaultPromptCards,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithCardLimits overrides how many cards are loaded and how many reach the prompt.
func (s *Service) WithCardLimits(contextCards, promptCards int) *Service {
	if contextCards > 0 {
		s.contextCards = contextCards
	}
	if promptCards > 0 {
		s.promptCards = promptCards
	}
	return s
}

// Send stores the user's message, asks the model and stores its answer.
// A model failure is answered with Apology, never returned.
func (s *Service) Send(ctx context.Context, req SendRequest) (Reply, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return Reply{}, fmt.Errorf("%w: message is required", domain.ErrInvalidRequest)
	}

	sessionID, err := s.ensureSession(ctx, req.SessionID, req.UserID)
	if err != nil {
		return Reply{}, err
	}

	history, err := s.repo.RecentMessages(ctx, sessionID, domchat.ContextWindow)
	if err != nil {
		return Reply{}, fmt.Errorf("load history: %w", err)
	}

	meta := map[string]any{}
	if len(req.CardIDs) > 0 {
		meta["cardIds"] = req.CardIDs
		meta["timestamp"] = s.now().Format(time.RFC3339)
	}
	if err := s.append(ctx, sessionID, domchat.RoleUser, text, meta); err != nil {
		return Reply{}, err
	}

	cards, err := s.relevantCards(ctx, req.CardIDs)
	if err != nil {
		return Reply{}, err
	}

	answer := s.answer(ctx, buildPrompt(text, history, cards, s.promptCards))

	if err := s.append(ctx, sessionID, domchat.RoleAssistant, answer, map[string]any{
		"model":             s.model,
		"timestamp":         s.now().Format(time.RFC3339),
		"relevantCardCount": len(cards),
	}); err != nil {
		return Reply{}, err
	}

	ts := s.now()
	if err := s.repo.Touch(ctx, sessionID, ts); err != nil {
		logger.FromContext(ctx).Warn("Failed to touch chat session",
			zap.String("session_id", sessionID), zap.Error(err))
	}

	return Reply{
		SessionID:          sessionID,
		Message:            answer,
		Timestamp:          ts,
		RelevantCardCount:  len(cards),
		ConversationLength: len(history) + 2,
	}, nil
}

func (s *Service) ensureSession(ctx context.Context, id, userID string) (string, error) {
	if id != "" {
		_, err := s.repo.GetSession(ctx, id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return "", fmt.Errorf("get session: %w", err)
		}
	} else {
		id = uuid.NewString()
	}

	now := s.now()
	if err := s.repo.CreateSession(ctx, domchat.Session{
		ID: id, UserID: userID, Active: true, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

func (s *Service) append(ctx context.Context, sessionID string, role domchat.Role, text string, meta map[string]any) error {
	msg, err := domchat.NewMessage(sessionID, role, text, meta)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	msg.CreatedAt = s.now()
	if err := s.repo.AppendMessage(ctx, msg); err != nil {
		return fmt.Errorf("store %s message: %w", role, err)
	}
	return nil
}

func (s *Service) relevantCards(ctx context.Context, ids []string) ([]domcard.Card, error) {
	if len(ids) > 0 {
		cards, err := s.cards.GetMany(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load context cards: %w", err)
		}
		return cards, nil
	}
	cards, err := s.cards.Published(ctx, s.contextCards)
	if err != nil {
		return nil, fmt.Errorf("load catalog cards: %w", err)
	}
	return cards, nil
}

func (s *Service) answer(ctx context.Context, prompt string) string {
	if s.llm == nil {
		metrics.LLMFallbacksTotal.WithLabelValues("chat").Inc()
		return Apology
	}
	out, err := s.llm.Complete(ctx, prompt)
	out = strings.TrimSpace(out)
	if err != nil || out == "" {
		metrics.LLMFallbacksTotal.WithLabelValues("chat").Inc()
		logger.FromContext(ctx).Warn("Chat completion failed, answering with apology", zap.Error(err))
		return Apology
	}
	return out
}

// History returns a session transcript, or the user's most recent sessions.
func (s *Service) History(ctx context.Context, sel domchat.Selector, limit int) ([]domchat.Session, error) {
	if err := sel.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	if sel.SessionID != "" {
		sess, err := s.repo.GetSession(ctx, sel.SessionID)
		if errors.Is(err, domain.ErrSessionNotFound) {
			return []domchat.Session{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("get session: %w", err)
		}
		sess.Messages, err = s.repo.RecentMessages(ctx, sess.ID, limit)
		if err != nil {
			return nil, fmt.Errorf("session messages: %w", err)
		}
		return []domchat.Session{sess}, nil
	}

	sessions, err := s.repo.SessionsByUser(ctx, sel.UserID, MaxUserSessions, limit)
	if err != nil {
		return nil, fmt.Errorf("user sessions: %w", err)
	}
	return sessions, nil
}

// Delete removes one session or every session of a user and returns how many were removed.
func (s *Service) Delete(ctx context.Context, sel domchat.Selector) (int, error) {
	if err := sel.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	if sel.SessionID != "" {
		n, err := s.repo.DeleteSession(ctx, sel.SessionID)
		if err != nil {
			return 0, fmt.Errorf("delete session: %w", err)
		}
		if n == 0 {
			return 0, domain.ErrSessionNotFound
		}
		return n, nil
	}

	n, err := s.repo.DeleteByUser(ctx, sel.UserID)
	if err != nil {
		return 0, fmt.Errorf("delete user sessions: %w", err)
	}
	return n, nil
}
