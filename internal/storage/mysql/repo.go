// Package mysql implements a MySQL repository on go-sql-driver/mysql. A batch
// is streamed with LOAD DATA LOCAL INFILE from an in-memory reader registered
// under a unique name for the duration of the statement. The server must
// allow local_infile.
package mysql

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"csvload/internal/schema"
	myddl "csvload/internal/storage/mysql/ddl"
)

// Config holds MySQL repository configuration.
type Config struct {
	DSN string

	// Table is the inferred schema. Boolean columns are converted from their
	// "true"/"false" text on load.
	Table schema.Table
}

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository parses the DSN, opens a pool and pings it. It returns the
// Repository plus a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	mc, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	conn, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(conn)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	close := func() { _ = db.Close() }
	return &Repository{db: db, cfg: cfg}, close, nil
}

// CopyCSV loads payload into table with LOAD DATA LOCAL INFILE. Empty fields
// load as NULL.
func (r *Repository) CopyCSV(ctx context.Context, table string, columns []string, payload []byte) (int64, error) {
	name := "csvload-" + uuid.NewString()
	mysql.RegisterReaderHandler(name, func() io.Reader { return bytes.NewReader(payload) })
	defer mysql.DeregisterReaderHandler(name)

	res, err := r.db.ExecContext(ctx, loadDataStatement(name, table, columns, r.booleans()))
	if err != nil {
		return 0, fmt.Errorf("load data: %w", err)
	}
	return res.RowsAffected()
}

// TableExists reports whether table exists in the connection's database.
func (r *Repository) TableExists(ctx context.Context, table string) (bool, error) {
	const q = `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?`
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

func (r *Repository) booleans() map[string]bool {
	out := map[string]bool{}
	for _, c := range r.cfg.Table.Columns {
		if c.Type == schema.Boolean {
			out[c.Name] = true
		}
	}
	return out
}

// loadDataStatement renders the LOAD DATA statement for a registered reader.
// Each field is read into a user variable and assigned with NULLIF so an
// empty token becomes NULL; boolean columns compare against 'true'.
func loadDataStatement(reader, table string, columns []string, booleans map[string]bool) string {
	d := myddl.Dialect{}
	vars := make([]string, len(columns))
	sets := make([]string, len(columns))
	for i, c := range columns {
		v := fmt.Sprintf("@v%d", i+1)
		vars[i] = v
		expr := fmt.Sprintf("NULLIF(%s, '')", v)
		if booleans[c] {
			expr += " = 'true'"
		}
		sets[i] = d.QuoteIdent(c) + " = " + expr
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "LOAD DATA LOCAL INFILE 'Reader::%s' INTO TABLE %s\n", reader, d.QuoteIdent(table))
	sb.WriteString("CHARACTER SET utf8mb4\n")
	sb.WriteString(`FIELDS TERMINATED BY ',' OPTIONALLY ENCLOSED BY '"' ESCAPED BY ''` + "\n")
	sb.WriteString(`LINES TERMINATED BY '\n'` + "\n")
	fmt.Fprintf(&sb, "(%s)\n", strings.Join(vars, ", "))
	fmt.Fprintf(&sb, "SET %s", strings.Join(sets, ", "))
	return sb.String()
}
