package db

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"backend-milestomemories/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/semaphore"
)

const defaultAcquireTimeout = 2 * time.Second

// ErrPoolExhausted is returned when no connection frees up within the
// acquire timeout.
var ErrPoolExhausted = errors.New("db: connection pool exhausted")

var (
	newPoolFn = func(ctx context.Context, cfg *pgxpool.Config) (*pgxpool.Pool, error) {
		return pgxpool.NewWithConfig(ctx, cfg)
	}
	pingPoolFn = func(ctx context.Context, pool *pgxpool.Pool) error {
		return pool.Ping(ctx)
	}
)

// ConnectPostgres opens a pool of at most DB_MAX_CONNS connections; dialing
// gives up after DB_CONNECT_TIMEOUT. Waiting for a free connection is bounded
// by the Postgres engine, see NewBoundedPostgres.
func ConnectPostgres(cfg config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresDSN())
	if err != nil {
		return nil, err
	}
	if cfg.DBMaxConns > 0 {
		poolCfg.MaxConns = cfg.DBMaxConns
	}
	if cfg.DBConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.DBConnectTimeout
	}
	if cfg.DBIdleTimeout > 0 {
		poolCfg.MaxConnIdleTime = cfg.DBIdleTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := newPoolFn(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pingPoolFn(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// PgxPool is the subset of *pgxpool.Pool the Postgres engine needs; pgxmock
// pools implement it too.
type PgxPool interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Postgres runs statements on a pgx pool. When bounded, each statement or
// transaction first takes one of maxConns slots and fails with
// ErrPoolExhausted if none frees up within the acquire timeout; the slot is
// held until rows are closed, the row is scanned or the transaction ends.
type Postgres struct {
	PgxPool
	slots          *semaphore.Weighted
	acquireTimeout time.Duration
}

// NewPostgres wraps pool without an acquisition bound.
func NewPostgres(pool PgxPool) *Postgres {
	return &Postgres{PgxPool: pool}
}

// NewBoundedPostgres limits in-flight work to maxConns, the pool size, so a
// saturated pool answers with an error after timeout instead of queueing.
func NewBoundedPostgres(pool PgxPool, maxConns int32, timeout time.Duration) *Postgres {
	if maxConns <= 0 {
		return NewPostgres(pool)
	}
	if timeout <= 0 {
		timeout = defaultAcquireTimeout
	}
	return &Postgres{
		PgxPool:        pool,
		slots:          semaphore.NewWeighted(int64(maxConns)),
		acquireTimeout: timeout,
	}
}

func (p *Postgres) Driver() string {
	return config.DriverPostgres
}

func (p *Postgres) acquire(ctx context.Context) (func(), error) {
	if p.slots == nil {
		return func() {}, nil
	}
	waitCtx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()
	if err := p.slots.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w after %s", ErrPoolExhausted, p.acquireTimeout)
	}
	var once sync.Once
	return func() { once.Do(func() { p.slots.Release(1) }) }, nil
}

func (p *Postgres) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	defer release()
	return p.PgxPool.Exec(ctx, sql, args...)
}

func (p *Postgres) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := p.PgxPool.Query(ctx, sql, args...)
	if err != nil {
		release()
		return nil, err
	}
	return &releasingRows{Rows: rows, release: release}, nil
}

func (p *Postgres) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	release, err := p.acquire(ctx)
	if err != nil {
		return errRow{err: err}
	}
	return &releasingRow{row: p.PgxPool.QueryRow(ctx, sql, args...), release: release}
}

func (p *Postgres) InTx(ctx context.Context, fn func(q Querier) error) error {
	release, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	tx, err := p.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type releasingRows struct {
	pgx.Rows
	release func()
}

func (r *releasingRows) Next() bool {
	if r.Rows.Next() {
		return true
	}
	r.release()
	return false
}

func (r *releasingRows) Close() {
	r.Rows.Close()
	r.release()
}

type releasingRow struct {
	row     pgx.Row
	release func()
}

func (r *releasingRow) Scan(dest ...any) error {
	defer r.release()
	return r.row.Scan(dest...)
}

type errRow struct {
	err error
}

func (r errRow) Scan(...any) error {
	return r.err
}
