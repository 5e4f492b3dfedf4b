// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql. SQLite has no bulk-load API like Postgres COPY, so each batch
// is decoded and inserted with a prepared statement inside one transaction.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"csvload/internal/ddl"
	"csvload/internal/schema"
	"csvload/internal/storage"
	sqliteddl "csvload/internal/storage/sqlite/ddl"
)

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a SQLite connection using the provided DSN and returns
// a Repository plus a Close function for cleanup.
//
// The pool is limited to one connection: SQLite serialises writers anyway
// and every connection to ":memory:" would otherwise see its own database.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Apply a basic ping with context to fail fast on invalid DSNs.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// CopyCSV decodes payload and inserts its rows into table in one transaction.
// Temporal columns are stored as their source text.
func (r *Repository) CopyCSV(ctx context.Context, table string, columns []string, payload []byte) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: CopyCSV: columns must not be empty")
	}
	rows, err := storage.DecodePayload(payload, storageTypes(r.cfg.Table, columns))
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertStatement(table, columns))
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: insert row %d: %w", i+1, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return inserted, nil
}

// TableExists reports whether table exists in the main database.
func (r *Repository) TableExists(ctx context.Context, table string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite: table exists: %w", err)
	}
	return n > 0, nil
}

// Exec executes an arbitrary SQL statement (typically DDL) using the underlying
// database/sql connection.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// insertStatement builds INSERT INTO "t" ("a", "b") VALUES (?, ?).
func insertStatement(table string, columns []string) string {
	d := sqliteddl.Dialect{}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdent(table), ddl.QuoteColumns(d, columns), placeholders,
	)
}

// storageTypes returns the conversion type for each column, by name.
func storageTypes(t schema.Table, columns []string) []schema.Type {
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
		out[i] = sqliteddl.StorageType(typ)
	}
	return out
}
