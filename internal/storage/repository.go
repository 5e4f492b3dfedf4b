// Package storage contains the storage-agnostic contracts for bulk loading and
// a factory that backends register themselves with at init time.
//
// A backend implements Repository. Its CopyCSV method receives the delimited
// payload produced by internal/encode for one batch and must load an empty
// unquoted field as NULL.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"csvload/internal/schema"
)

// Sink is the bulk-transfer primitive used by the Loader.
type Sink interface {
	// CopyCSV loads payload into table, mapping fields positionally onto
	// columns, and returns the number of rows the backend accepted.
	CopyCSV(ctx context.Context, table string, columns []string, payload []byte) (int64, error)
}

// Repository is a Sink plus the few table operations the CLI needs.
type Repository interface {
	Sink

	// Exec runs a single statement, typically DDL.
	Exec(ctx context.Context, sql string) error

	// TableExists reports whether table exists in the default schema.
	TableExists(ctx context.Context, table string) (bool, error)

	Close()
}

// Config selects and configures a backend.
type Config struct {
	// Kind is the registered backend name, e.g. "postgres".
	Kind string

	// DSN is passed to the backend driver unchanged.
	DSN string

	// Table is the inferred destination schema. Backends that cannot stream
	// text straight into typed columns use its types to convert values.
	Table schema.Table
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	factoryMu sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind. It is called from backend
// packages' init functions; registering a kind twice replaces the factory.
func Register(kind string, f Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factories[kind] = f
}

// Kinds lists the registered backend names in sorted order.
func Kinds() []string {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	factoryMu.RLock()
	f, ok := factories[cfg.Kind]
	factoryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: no backend registered for kind %q (have %v)", cfg.Kind, Kinds())
	}
	return f(ctx, cfg)
}
