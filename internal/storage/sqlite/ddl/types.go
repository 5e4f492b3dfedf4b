// Package ddl contains SQLite-specific helpers for generating DDL.
//
// SQLite is dynamically typed, so the mapping picks canonical affinities:
// integers and booleans are INTEGER, floats are REAL, and dates, timestamps
// and text are TEXT (ISO-8601 strings for the temporal types).
package ddl

import (
	"strings"

	"csvload/internal/schema"
)

// MapType maps an inferred column type into a SQLite column type.
func MapType(t schema.Type) string {
	switch {
	case t.IsInteger(), t == schema.Boolean:
		return "INTEGER"
	case t.IsFloat():
		return "REAL"
	default:
		return "TEXT"
	}
}

// StorageType is the type values are converted to before insertion. Temporal
// columns stay text so SQLite stores the source representation.
func StorageType(t schema.Type) schema.Type {
	if t.IsTemporal() {
		return schema.Text
	}
	return t
}

// Dialect renders SQLite DDL.
type Dialect struct{}

func (Dialect) Name() string { return "sqlite" }

func (Dialect) QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func (Dialect) MapType(t schema.Type) string { return MapType(t) }
