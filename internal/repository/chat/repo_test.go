package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kailas-cloud/cardex/internal/db"
	"github.com/kailas-cloud/cardex/internal/domain"
	domchat "github.com/kailas-cloud/cardex/internal/domain/chat"
)

type stubQuerier struct {
	rowErr  error
	err     error
	tag     pgconn.CommandTag
	lastSQL string
}

func (q *stubQuerier) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	q.lastSQL = sql
	return nil, q.err
}

func (q *stubQuerier) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	q.lastSQL = sql
	return errRow{err: q.rowErr}
}

func (q *stubQuerier) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	q.lastSQL = sql
	return q.tag, q.err
}

type errRow struct{ err error }

func (r errRow) Scan(_ ...any) error { return r.err }

func TestGetSession_NotFound(t *testing.T) {
	r := New(&stubQuerier{rowErr: pgx.ErrNoRows})
	_, err := r.GetSession(context.Background(), "missing")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestGetSession_DBError(t *testing.T) {
	r := New(&stubQuerier{rowErr: errors.New("conn reset")})
	_, err := r.GetSession(context.Background(), "s1")
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestDeleteSession_RowsAffected(t *testing.T) {
	r := New(&stubQuerier{tag: pgconn.NewCommandTag("DELETE 1")})
	n, err := r.DeleteSession(context.Background(), "s1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
}

func TestDeleteByUser_RowsAffected(t *testing.T) {
	r := New(&stubQuerier{tag: pgconn.NewCommandTag("DELETE 3")})
	n, err := r.DeleteByUser(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("deleted = %d, want 3", n)
	}
}

func TestWriteErrors(t *testing.T) {
	ctx := context.Background()
	r := New(&stubQuerier{err: errors.New("down")})
	now := time.Now()

	errs := []error{
		r.CreateSession(ctx, domchat.Session{ID: "s1", Active: true, CreatedAt: now, UpdatedAt: now}),
		r.Touch(ctx, "s1", now),
		r.AppendMessage(ctx, domchat.Message{SessionID: "s1", Role: domchat.RoleUser, Content: "hi"}),
	}
	_, err := r.RecentMessages(ctx, "s1", 10)
	errs = append(errs, err)

	for i, err := range errs {
		var dbErr *db.Error
		if !errors.As(err, &dbErr) {
			t.Errorf("call %d: expected db.Error, got %v", i, err)
		}
	}
}
