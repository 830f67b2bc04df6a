package querylog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kailas-cloud/cardex/internal/db"
	domql "github.com/kailas-cloud/cardex/internal/domain/querylog"
)

// querier is the consumer interface over a pgx pool (ISP).
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repo is the append-only query log on Postgres.
type Repo struct {
	db querier
}

// New creates a query log repository.
func New(q querier) *Repo {
	return &Repo{db: q}
}

// Append records one query.
func (r *Repo) Append(ctx context.Context, e domql.Entry) error {
	filters := e.Filters
	if filters == nil {
		filters = map[string]any{}
	}
	raw, err := json.Marshal(filters)
	if err != nil {
		return fmt.Errorf("marshal filters: %w", err)
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO search_queries (query, query_type, filters, user_id, session_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		e.Query, string(e.Type), raw, nullable(e.UserID), nullable(e.SessionID), createdAt,
	)
	if err != nil {
		return &db.Error{Op: db.OpExec, Err: fmt.Errorf("append query: %w", err)}
	}
	return nil
}

// Popular returns the most frequent queries logged since the given time.
func (r *Repo) Popular(ctx context.Context, since time.Time, limit int) ([]domql.Popular, error) {
	rows, err := r.db.Query(ctx,
		`SELECT query, count(*) AS n FROM search_queries
WHERE created_at >= $1
GROUP BY query
ORDER BY n DESC, query
LIMIT $2`, since, limit)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("popular queries: %w", err)}
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domql.Popular, error) {
		var p domql.Popular
		err := row.Scan(&p.Query, &p.Count)
		return p, err
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: fmt.Errorf("scan popular: %w", err)}
	}
	return out, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
