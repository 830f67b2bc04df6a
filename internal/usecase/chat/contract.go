package chat

import (
	"context"
	"time"

	domcard "github.com/kailas-cloud/cardex/internal/domain/card"
	domchat "github.com/kailas-cloud/cardex/internal/domain/chat"
)

// Repository stores chat sessions and their transcripts.
type Repository interface {
	CreateSession(ctx context.Context, s domchat.Session) error
	GetSession(ctx context.Context, id string) (domchat.Session, error)
	Touch(ctx context.Context, id string, at time.Time) error
	AppendMessage(ctx context.Context, m domchat.Message) error
	RecentMessages(ctx context.Context, sessionID string, n int) ([]domchat.Message, error)
	SessionsByUser(ctx context.Context, userID string, limit, messagesPerSession int) ([]domchat.Session, error)
	DeleteSession(ctx context.Context, id string) (int, error)
	DeleteByUser(ctx context.Context, userID string) (int, error)
}

// CardReader loads the cards the assistant may talk about.
type CardReader interface {
	GetMany(ctx context.Context, ids []string) ([]domcard.Card, error)
	Published(ctx context.Context, limit int) ([]domcard.Card, error)
}
