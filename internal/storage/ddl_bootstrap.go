package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"csvload/internal/ddl"
	"csvload/internal/schema"
)

// ErrTableNotFound is returned by PrepareTable when the destination table is
// missing and creating it was not requested.
var ErrTableNotFound = errors.New("storage: table does not exist")

var (
	ddlMu    sync.RWMutex
	dialects = map[string]ddl.Dialect{}
)

// RegisterDDL registers (or replaces) the DDL dialect for the given storage
// kind. It is typically called from backend packages' init() functions.
func RegisterDDL(kind string, d ddl.Dialect) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	dialects[kind] = d
}

// DialectFor returns the dialect registered for kind.
func DialectFor(kind string) (ddl.Dialect, error) {
	ddlMu.RLock()
	d, ok := dialects[kind]
	ddlMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: no DDL dialect registered for kind %q", kind)
	}
	return d, nil
}

// CreateTableSQL renders the CREATE TABLE statement for an inferred table in
// the dialect of kind. It needs no connection, so dry runs can print it.
func CreateTableSQL(kind string, t schema.Table) (string, error) {
	d, err := DialectFor(kind)
	if err != nil {
		return "", err
	}
	return ddl.BuildCreateTableSQL(ddl.FromSchema(t, d), d)
}

// TableOptions controls PrepareTable.
type TableOptions struct {
	// Drop drops the table first if it exists.
	Drop bool

	// Create creates the table when it does not exist.
	Create bool
}

// TablePrep reports what PrepareTable did.
type TablePrep struct {
	Dropped bool
	Created bool
}

// PrepareTable makes sure t exists in repo before loading: it optionally drops
// the table, then checks for it and creates it when allowed. A missing table
// without opts.Create fails with ErrTableNotFound.
func PrepareTable(ctx context.Context, kind string, repo Repository, t schema.Table, opts TableOptions) (TablePrep, error) {
	var prep TablePrep

	d, err := DialectFor(kind)
	if err != nil {
		return prep, err
	}

	if opts.Drop {
		stmt, err := ddl.BuildDropTableSQL(t.Name, d)
		if err != nil {
			return prep, err
		}
		if err := repo.Exec(ctx, stmt); err != nil {
			return prep, fmt.Errorf("storage: drop table %s: %w", t.Name, err)
		}
		prep.Dropped = true
	}

	exists, err := repo.TableExists(ctx, t.Name)
	if err != nil {
		return prep, fmt.Errorf("storage: check table %s: %w", t.Name, err)
	}
	if exists {
		return prep, nil
	}
	if !opts.Create {
		return prep, fmt.Errorf("%w: %s (enable table creation to create it)", ErrTableNotFound, t.Name)
	}

	stmt, err := ddl.BuildCreateTableSQL(ddl.FromSchema(t, d), d)
	if err != nil {
		return prep, err
	}
	if err := repo.Exec(ctx, stmt); err != nil {
		return prep, fmt.Errorf("storage: create table %s: %w", t.Name, err)
	}
	prep.Created = true
	return prep, nil
}
