// Package postgres implements a Postgres repository using pgx v5. Batches are
// streamed into the target table with COPY ... FROM STDIN in CSV format.
package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"csvload/internal/ddl"
	pgddl "csvload/internal/storage/postgres/ddl"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN string // connection string for pgxpool
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pgxpool ping: %w", err)
	}
	close := func() { pool.Close() }
	return &Repository{pool: pool, cfg: cfg}, close, nil
}

// CopyCSV streams payload into table with COPY FROM STDIN. Empty unquoted
// fields load as NULL.
func (r *Repository) CopyCSV(ctx context.Context, table string, columns []string, payload []byte) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	tag, err := conn.Conn().PgConn().CopyFrom(ctx, bytes.NewReader(payload), copyStatement(table, columns))
	if err != nil {
		return 0, describe(err)
	}
	return tag.RowsAffected(), nil
}

// TableExists reports whether table exists in the current schema.
func (r *Repository) TableExists(ctx context.Context, table string) (bool, error) {
	const q = `SELECT EXISTS (
  SELECT 1 FROM information_schema.tables
  WHERE table_schema = current_schema() AND table_name = $1
)`
	var ok bool
	if err := r.pool.QueryRow(ctx, q, table).Scan(&ok); err != nil {
		return false, describe(err)
	}
	return ok, nil
}

// Exec implements storage.Repository.Exec for Postgres.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	_, err := r.pool.Exec(ctx, sql)
	return describe(err)
}

// copyStatement renders the COPY statement for table and columns.
func copyStatement(table string, columns []string) string {
	d := pgddl.Dialect{}
	return fmt.Sprintf(
		"COPY %s (%s) FROM STDIN WITH (FORMAT csv, NULL '')",
		d.QuoteIdent(table), ddl.QuoteColumns(d, columns),
	)
}

// describe folds the server's detail and SQLSTATE into the error text.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%w (%s; SQLSTATE %s)", err, pgErr.Detail, pgErr.SQLState())
	}
	return err
}
