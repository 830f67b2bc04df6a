package card

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// failingQuerier fails every call with err.
type failingQuerier struct {
	err     error
	queries []string
}

func (f *failingQuerier) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	f.queries = append(f.queries, sql)
	return nil, f.err
}

func (f *failingQuerier) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	f.queries = append(f.queries, sql)
	return errRow{err: f.err}
}

func (f *failingQuerier) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.queries = append(f.queries, sql)
	return pgconn.CommandTag{}, f.err
}

func (f *failingQuerier) Begin(_ context.Context) (pgx.Tx, error) {
	return nil, f.err
}

type errRow struct{ err error }

func (r errRow) Scan(_ ...any) error { return r.err }
