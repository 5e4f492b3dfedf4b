// Package ddl defines a small, backend-agnostic model for SQL DDL and renders
// CREATE TABLE and DROP TABLE statements from it.
//
// Backends supply a Dialect (identifier quoting and a type map for the
// inferred column types); the statement shapes are shared. CREATE TABLE is
// rendered without IF NOT EXISTS because callers check for the table first.
package ddl

import (
	"fmt"
	"strings"
)

// BuildCreateTableSQL renders a CREATE TABLE statement for t.
//
// Rules:
//
//   - t.Name must be non-empty; it is quoted with d.QuoteIdent.
//
//   - Each column must have a non-empty Name and SQLType.
//
//   - A column is rendered as:
//
//     <Name> <SQLType> [NOT NULL]
//
//     where NOT NULL is added when Nullable == false.
func BuildCreateTableSQL(t TableDef, d Dialect) (string, error) {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return "", fmt.Errorf("ddl: table name must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		col := strings.TrimSpace(c.Name)
		if col == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", name)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", col)
		}

		var sb strings.Builder
		sb.WriteString(d.QuoteIdent(col))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())
	}

	return fmt.Sprintf(
		"CREATE TABLE %s (\n  %s\n)",
		d.QuoteIdent(name),
		strings.Join(cols, ",\n  "),
	), nil
}

// BuildDropTableSQL renders DROP TABLE IF EXISTS for table.
func BuildDropTableSQL(table string, d Dialect) (string, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return "", fmt.Errorf("ddl: table name must not be empty")
	}
	return "DROP TABLE IF EXISTS " + d.QuoteIdent(table), nil
}

// QuoteColumns quotes every name with d and joins them with ", ".
func QuoteColumns(d Dialect, names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.QuoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}
