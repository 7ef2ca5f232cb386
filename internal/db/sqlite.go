package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"backend-milestomemories/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the embedded engine. It keeps a single connection so statements
// run one at a time, and the file is the durable state.
type SQLite struct {
	sqliteQuerier
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	dsn := "file:" + path + "?_foreign_keys=on&_busy_timeout=5000"
	if path == ":memory:" {
		dsn = "file::memory:?_foreign_keys=on"
	}
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return NewSQLite(conn), nil
}

// NewSQLite wraps an already opened database handle.
func NewSQLite(conn *sql.DB) *SQLite {
	return &SQLite{sqliteQuerier: sqliteQuerier{conn: conn}, db: conn}
}

func (s *SQLite) Driver() string {
	return config.DriverSQLite
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() {
	_ = s.db.Close()
}

func (s *SQLite) InTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(sqliteQuerier{conn: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type sqlConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type sqliteQuerier struct {
	conn sqlConn
}

func (q sqliteQuerier) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	stmt, err := Translate(query)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	res, err := q.conn.ExecContext(ctx, stmt.SQL, args...)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	return commandTag(stmt.Verb, n), nil
}

func (q sqliteQuerier) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	stmt, err := Translate(query)
	if err != nil {
		return nil, err
	}
	if stmt.Returning != "" {
		return q.insertReturning(ctx, stmt, args)
	}
	rows, err := q.conn.QueryContext(ctx, stmt.SQL, args...)
	if err != nil {
		return nil, err
	}
	return &sqlRows{rows: rows, verb: stmt.Verb}, nil
}

func (q sqliteQuerier) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	rows, err := q.Query(ctx, query, args...)
	return &sqlRow{rows: rows, err: err}
}

// insertReturning runs the INSERT, then reads the requested columns of the
// row it created by rowid. An insert swallowed by ON CONFLICT DO NOTHING
// yields no rows.
func (q sqliteQuerier) insertReturning(ctx context.Context, stmt Statement, args []any) (pgx.Rows, error) {
	res, err := q.conn.ExecContext(ctx, stmt.SQL, args...)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	switch {
	case n == 0:
		return emptyRows{}, nil
	case n > 1:
		return nil, ErrReturningUnsupported
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	rows, err := q.conn.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s WHERE rowid = ?", stmt.Returning, stmt.Table), id)
	if err != nil {
		return nil, err
	}
	return &sqlRows{rows: rows, verb: stmt.Verb}, nil
}

func commandTag(verb string, n int64) pgconn.CommandTag {
	if verb == "INSERT" {
		return pgconn.NewCommandTag(fmt.Sprintf("INSERT 0 %d", n))
	}
	return pgconn.NewCommandTag(fmt.Sprintf("%s %d", verb, n))
}

// sqlRows adapts *sql.Rows to pgx.Rows.
type sqlRows struct {
	rows   *sql.Rows
	verb   string
	n      int64
	closed bool
}

func (r *sqlRows) Close() {
	if r.closed {
		return
	}
	r.closed = true
	_ = r.rows.Close()
}

func (r *sqlRows) Err() error {
	return r.rows.Err()
}

func (r *sqlRows) CommandTag() pgconn.CommandTag {
	return commandTag(r.verb, r.n)
}

func (r *sqlRows) FieldDescriptions() []pgconn.FieldDescription {
	cols, err := r.rows.Columns()
	if err != nil {
		return nil
	}
	fields := make([]pgconn.FieldDescription, len(cols))
	for i, name := range cols {
		fields[i] = pgconn.FieldDescription{Name: strings.ToLower(name)}
	}
	return fields
}

func (r *sqlRows) Next() bool {
	if r.closed {
		return false
	}
	if r.rows.Next() {
		r.n++
		return true
	}
	r.Close()
	return false
}

func (r *sqlRows) Scan(dest ...any) error {
	return r.rows.Scan(dest...)
}

func (r *sqlRows) Values() ([]any, error) {
	cols, err := r.rows.Columns()
	if err != nil {
		return nil, err
	}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	return values, nil
}

func (r *sqlRows) RawValues() [][]byte {
	return nil
}

func (r *sqlRows) Conn() *pgx.Conn {
	return nil
}

type emptyRows struct{}

func (emptyRows) Close()                                       {}
func (emptyRows) Err() error                                   { return nil }
func (emptyRows) CommandTag() pgconn.CommandTag                { return commandTag("INSERT", 0) }
func (emptyRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (emptyRows) Next() bool                                   { return false }
func (emptyRows) Scan(...any) error                            { return pgx.ErrNoRows }
func (emptyRows) Values() ([]any, error)                       { return nil, nil }
func (emptyRows) RawValues() [][]byte                          { return nil }
func (emptyRows) Conn() *pgx.Conn                              { return nil }

type sqlRow struct {
	rows pgx.Rows
	err  error
}

func (r *sqlRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	defer r.rows.Close()
	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return err
		}
		return pgx.ErrNoRows
	}
	return r.rows.Scan(dest...)
}
