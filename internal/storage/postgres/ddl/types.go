// Package ddl contains Postgres-specific helpers for generating DDL.
package ddl

import (
	"strings"

	"csvload/internal/schema"
)

// MapType maps an inferred column type to a Postgres SQL type.
//
//	SmallInt  -> SMALLINT
//	Integer   -> INTEGER
//	BigInt    -> BIGINT
//	Real      -> REAL
//	Double    -> DOUBLE PRECISION
//	Boolean   -> BOOLEAN
//	Date      -> DATE
//	Timestamp -> TIMESTAMP
//	otherwise -> TEXT
func MapType(t schema.Type) string {
	switch t {
	case schema.SmallInt:
		return "SMALLINT"
	case schema.Integer:
		return "INTEGER"
	case schema.BigInt:
		return "BIGINT"
	case schema.Real:
		return "REAL"
	case schema.Double:
		return "DOUBLE PRECISION"
	case schema.Boolean:
		return "BOOLEAN"
	case schema.Date:
		return "DATE"
	case schema.Timestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

// Dialect renders Postgres DDL.
type Dialect struct{}

func (Dialect) Name() string { return "postgres" }

// QuoteIdent quotes a single identifier segment for Postgres, e.g.:
//
//	QuoteIdent(`pcv`)        => `"pcv"`
//	QuoteIdent(`weird"name`) => `"weird""name"`
func (Dialect) QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func (Dialect) MapType(t schema.Type) string { return MapType(t) }
