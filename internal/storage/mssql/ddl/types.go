// Package ddl contains MSSQL-specific helpers for generating DDL.
//
// It maps inferred column types into SQL Server types. The mapping is
// conservative and biased toward safe, widely-supported choices.
package ddl

import (
	"strings"

	"csvload/internal/schema"
)

// MapType maps an inferred column type into a SQL Server column type.
// Text and unknown types fall back to NVARCHAR(MAX).
func MapType(t schema.Type) string {
	switch t {
	case schema.SmallInt:
		return "SMALLINT"
	case schema.Integer:
		return "INT"
	case schema.BigInt:
		return "BIGINT"
	case schema.Real:
		return "REAL"
	case schema.Double:
		return "FLOAT"
	case schema.Boolean:
		return "BIT"
	case schema.Date:
		return "DATE"
	case schema.Timestamp:
		return "DATETIME2"
	default:
		return "NVARCHAR(MAX)"
	}
}

// Dialect renders SQL Server DDL.
type Dialect struct{}

func (Dialect) Name() string { return "mssql" }

// QuoteIdent quotes a single identifier segment for SQL Server using
// bracket syntax, escaping any closing brackets.
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
func (Dialect) QuoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

func (Dialect) MapType(t schema.Type) string { return MapType(t) }
