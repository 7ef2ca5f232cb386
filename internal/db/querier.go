package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier represents the minimal database operations used by services.
// Statements are written with PostgreSQL-style $n placeholders; engines that
// speak another dialect translate them. *pgxpool.Pool, pgx.Tx, pgxmock pools
// and the SQLite engine all satisfy this interface.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxRunner runs fn inside a transaction, committing when fn returns nil.
type TxRunner interface {
	InTx(ctx context.Context, fn func(q Querier) error) error
}

// Store is what services depend on: plain statements plus transactions.
type Store interface {
	Querier
	TxRunner
}

// Engine is the storage backend selected once at process start.
type Engine interface {
	Store
	Ping(ctx context.Context) error
	Close()
	Driver() string
}
