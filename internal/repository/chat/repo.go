package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kailas-cloud/cardex/internal/db"
	"github.com/kailas-cloud/cardex/internal/domain"
	domchat "github.com/kailas-cloud/cardex/internal/domain/chat"
)

// querier is the consumer interface over a pgx pool (ISP).
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repo stores chat sessions and transcripts on Postgres.
type Repo struct {
	db querier
}

// New creates a chat repository.
func New(q querier) *Repo {
	return &Repo{db: q}
}

// CreateSession inserts a new active session.
func (r *Repo) CreateSession(ctx context.Context, s domchat.Session) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO chat_sessions (id, user_id, is_active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		s.ID, nullable(s.UserID), s.Active, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return &db.Error{Op: db.OpExec, Err: fmt.Errorf("create session: %w", err)}
	}
	return nil
}

// GetSession returns a session without messages.
func (r *Repo) GetSession(ctx context.Context, id string) (domchat.Session, error) {
	var s domchat.Session
	var userID *string
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, is_active, created_at, updated_at FROM chat_sessions WHERE id = $1`, id,
	).Scan(&s.ID, &userID, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domchat.Session{}, domain.ErrSessionNotFound
		}
		return domchat.Session{}, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("get session: %w", err)}
	}
	if userID != nil {
		s.UserID = *userID
	}
	return s, nil
}

// Touch bumps the session's updated_at.
func (r *Repo) Touch(ctx context.Context, id string, at time.Time) error {
	if _, err := r.db.Exec(ctx, `UPDATE chat_sessions SET updated_at = $2 WHERE id = $1`, id, at); err != nil {
		return &db.Error{Op: db.OpExec, Err: fmt.Errorf("touch session: %w", err)}
	}
	return nil
}

// AppendMessage stores one transcript line.
func (r *Repo) AppendMessage(ctx context.Context, m domchat.Message) error {
	meta := m.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO chat_messages (session_id, role, content, metadata, created_at) VALUES ($1, $2, $3, $4, $5)`,
		m.SessionID, string(m.Role), m.Content, raw, m.CreatedAt)
	if err != nil {
		return &db.Error{Op: db.OpExec, Err: fmt.Errorf("append message: %w", err)}
	}
	return nil
}

// RecentMessages returns the last n messages of a session, oldest first.
func (r *Repo) RecentMessages(ctx context.Context, sessionID string, n int) ([]domchat.Message, error) {
	rows, err := r.db.Query(ctx,
		`SELECT session_id, role, content, metadata, created_at FROM (
	SELECT id, session_id, role, content, metadata, created_at FROM chat_messages
	WHERE session_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2
) recent ORDER BY created_at, id`, sessionID, n)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("recent messages: %w", err)}
	}
	return collectMessages(rows)
}

// SessionsByUser returns the user's sessions, newest first, each with its
// last messagesPerSession messages.
func (r *Repo) SessionsByUser(ctx context.Context, userID string, limit, messagesPerSession int) ([]domchat.Session, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, is_active, created_at, updated_at FROM chat_sessions
WHERE user_id = $1 ORDER BY updated_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("sessions by user: %w", err)}
	}
	sessions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domchat.Session, error) {
		s := domchat.Session{UserID: userID}
		err := row.Scan(&s.ID, &s.Active, &s.CreatedAt, &s.UpdatedAt)
		return s, err
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: fmt.Errorf("scan sessions: %w", err)}
	}
	for i := range sessions {
		msgs, err := r.RecentMessages(ctx, sessions[i].ID, messagesPerSession)
		if err != nil {
			return nil, err
		}
		sessions[i].Messages = msgs
	}
	return sessions, nil
}

// DeleteSession removes a session and its messages. Returns the number removed.
func (r *Repo) DeleteSession(ctx context.Context, id string) (int, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM chat_sessions WHERE id = $1`, id)
	if err != nil {
		return 0, &db.Error{Op: db.OpExec, Err: fmt.Errorf("delete session: %w", err)}
	}
	return int(tag.RowsAffected()), nil
}

// DeleteByUser removes all sessions of a user. Returns the number removed.
func (r *Repo) DeleteByUser(ctx context.Context, userID string) (int, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM chat_sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, &db.Error{Op: db.OpExec, Err: fmt.Errorf("delete user sessions: %w", err)}
	}
	return int(tag.RowsAffected()), nil
}

func collectMessages(rows pgx.Rows) ([]domchat.Message, error) {
	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domchat.Message, error) {
		var m domchat.Message
		var role string
		var raw []byte
		if err := row.Scan(&m.SessionID, &role, &m.Content, &raw, &m.CreatedAt); err != nil {
			return m, err
		}
		m.Role = domchat.Role(role)
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &m.Metadata); err != nil {
				return m, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		return m, nil
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: fmt.Errorf("scan messages: %w", err)}
	}
	return msgs, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
