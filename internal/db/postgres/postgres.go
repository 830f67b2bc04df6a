package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kailas-cloud/cardex/internal/db"
)

//go:embed schema.sql
var schema string

// Config holds connection parameters for the Postgres pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// DB wraps a pgx connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// New parses the DSN and opens a pool. Connections are established lazily.
func New(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Ping checks connectivity.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.Pool.Ping(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close releases all pooled connections.
func (d *DB) Close() {
	d.Pool.Close()
}

// WaitForReady polls Ping until the database responds or timeout expires.
func (d *DB) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := d.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Migrate applies the embedded schema. Statements are idempotent.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.Pool.Exec(ctx, schema); err != nil {
		return &db.Error{Op: db.OpExec, Err: fmt.Errorf("apply schema: %w", err)}
	}
	return nil
}
