// Package database declares the storage access surface used by the
// repositories, the goal pipeline, and the maintenance monitor. Everything
// above this package depends on these interfaces; the pgx-backed
// implementation lives in the postgres subpackage.
package database

import (
	"context"
	"database/sql"
)

// DB is the pooled connection handle. Exec reports affected rows so the
// cleanup and retention paths can log how much they removed. SQLDB exposes
// the database/sql view of the same pool for the migration runner.
type DB interface {
	Ping(ctx context.Context) error
	Close() error

	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) Row

	Begin(ctx context.Context) (Tx, error)

	SQLDB() *sql.DB
}

// Tx mirrors DB inside a transaction. Rollback after Commit must be a no-op
// so callers can keep it deferred.
type Tx interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) Row

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type Rows interface {
	Close()
	Next() bool
	Scan(dest ...any) error
	Err() error
}

type Row interface {
	Scan(dest ...any) error
}
