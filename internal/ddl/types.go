package ddl

import "csvload/internal/schema"

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: column name (unquoted; quoting happens at render time)
//   - SQLType: target SQL type (e.g., TEXT, BIGINT, TIMESTAMP)
//   - Nullable: whether NULL is allowed
type ColumnDef struct {
	Name     string
	SQLType  string
	Nullable bool
}

// TableDef holds the table name and an ordered list of columns. The name is
// emitted as a single quoted identifier.
type TableDef struct {
	Name    string
	Columns []ColumnDef
}

// Dialect is what a backend contributes to DDL rendering.
type Dialect interface {
	// Name is the storage kind, e.g. "postgres".
	Name() string

	// QuoteIdent quotes one identifier, escaping the quote character.
	QuoteIdent(id string) string

	// MapType returns the column type used for an inferred type.
	MapType(t schema.Type) string
}

// FromSchema converts an inferred table into a TableDef using d's type map.
func FromSchema(t schema.Table, d Dialect) TableDef {
	cols := make([]ColumnDef, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = ColumnDef{
			Name:     c.Name,
			SQLType:  d.MapType(c.Type),
			Nullable: c.Nullable,
		}
	}
	return TableDef{Name: t.Name, Columns: cols}
}
