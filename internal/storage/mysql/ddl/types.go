// Package ddl contains MySQL-specific helpers for generating DDL.
package ddl

import (
	"strings"

	"csvload/internal/schema"
)

// MapType maps an inferred column type into a MySQL column type.
func MapType(t schema.Type) string {
	switch t {
	case schema.SmallInt:
		return "SMALLINT"
	case schema.Integer:
		return "INT"
	case schema.BigInt:
		return "BIGINT"
	case schema.Real:
		return "FLOAT"
	case schema.Double:
		return "DOUBLE"
	case schema.Boolean:
		return "BOOLEAN"
	case schema.Date:
		return "DATE"
	case schema.Timestamp:
		return "DATETIME(6)"
	default:
		return "LONGTEXT"
	}
}

// Dialect renders MySQL DDL.
type Dialect struct{}

func (Dialect) Name() string { return "mysql" }

// QuoteIdent quotes with backticks, doubling embedded backticks.
func (Dialect) QuoteIdent(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}

func (Dialect) MapType(t schema.Type) string { return MapType(t) }
