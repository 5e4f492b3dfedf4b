// Package sqlite implements a SQLite-backed storage.Repository.
package sqlite

import "csvload/internal/schema"

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:load.db?_pragma=foreign_keys(1)"
	//   ":memory:"
	DSN string

	// Table is the inferred schema; its column types drive value conversion.
	Table schema.Table
}
