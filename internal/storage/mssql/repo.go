// Package mssql implements a Microsoft SQL Server repository using the
// go-mssqldb bulk copy API. The encoded batch is decoded into typed values
// and streamed into the target table with CopyIn inside one transaction.
package mssql

import (
	"context"
	"database/sql"
	"fmt"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"csvload/internal/schema"
	"csvload/internal/storage"
)

// Config holds MSSQL repository configuration.
type Config struct {
	DSN string

	// Table is the inferred schema; its column types drive value conversion.
	Table schema.Table
}

// Repository is an MSSQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	close := func() { _ = db.Close() }
	return &Repository{db: db, cfg: cfg}, close, nil
}

// CopyCSV decodes payload and bulk-copies it into table.
func (r *Repository) CopyCSV(ctx context.Context, table string, columns []string, payload []byte) (int64, error) {
	rows, err := storage.DecodePayload(payload, columnTypes(r.cfg.Table, columns))
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(table, mssql.BulkOptions{}, columns...))
	if err != nil {
		rollback()
		return 0, fmt.Errorf("prepare bulk: %w", err)
	}
	for i := range rows {
		if _, err := stmt.ExecContext(ctx, rows[i]...); err != nil {
			_ = stmt.Close()
			rollback()
			return 0, fmt.Errorf("bulk row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		rollback()
		return 0, fmt.Errorf("bulk finalize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		rollback()
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// TableExists reports whether a base table named table exists in the current
// database.
func (r *Repository) TableExists(ctx context.Context, table string) (bool, error) {
	const q = `SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_TYPE = 'BASE TABLE' AND TABLE_NAME = @p1`
	var n int
	if err := r.db.QueryRowContext(ctx, q, table).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Exec executes a SQL statement against the pool.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	_, err := r.db.ExecContext(ctx, sqlText)
	return err
}

// columnTypes looks up the inferred type of each column by name. Columns
// missing from t are treated as text.
func columnTypes(t schema.Table, columns []string) []schema.Type {
	byName := make(map[string]schema.Type, len(t.Columns))
	for _, c := range t.Columns {
		byName[c.Name] = c.Type
	}
	out := make([]schema.Type, len(columns))
	for i, c := range columns {
		typ, ok := byName[c]
		if !ok {
			typ = schema.Text
		}
		out[i] = typ
	}
	return out
}
