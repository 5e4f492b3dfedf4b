package schema

import (
	"errors"
	"fmt"
	"io"
)

// DefaultSampleSize is the number of rows inspected when no size is given.
const DefaultSampleSize = 1000

// RowSource yields parsed rows in order. Next returns io.EOF once the source
// is exhausted; any other error aborts inference.
type RowSource interface {
	Next() ([]string, error)
}

// Table is the inferred schema of a destination table. Columns are in source
// order.
type Table struct {
	Name    string    `json:"name"`
	Columns []Profile `json:"columns"`
}

// NewTable returns a table with an empty profile per column name.
func NewTable(name string, columns []string) Table {
	t := Table{Name: name, Columns: make([]Profile, len(columns))}
	for i, c := range columns {
		t.Columns[i] = NewProfile(c)
	}
	return t
}

// ColumnNames returns the column names in order.
func (t Table) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Types returns the column types in order.
func (t Table) Types() []Type {
	out := make([]Type, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Type
	}
	return out
}

// Observe folds one row into the column profiles. row is the 1-based data row
// index used in the error when the field count does not match.
func (t *Table) Observe(row int64, fields []string) error {
	if len(fields) != len(t.Columns) {
		return &SchemaError{Row: row, Got: len(fields), Want: len(t.Columns)}
	}
	for i, v := range fields {
		t.Columns[i].Observe(v)
	}
	return nil
}

// Finalize finalizes every column profile.
func (t *Table) Finalize() {
	for i := range t.Columns {
		t.Columns[i].Finalize()
	}
}

// InferTable samples up to sampleSize rows from src and returns the finalized
// schema for a table with the given name and columns. It stops early when src
// is exhausted and fails with ErrEmptyInput when no row was read. The name is
// validated before src is touched.
//
// InferTable consumes src; the caller must reopen the underlying input before
// loading it.
func InferTable(src RowSource, name string, columns []string, sampleSize int) (Table, error) {
	if sampleSize <= 0 {
		return Table{}, fmt.Errorf("schema: sample size must be > 0, got %d", sampleSize)
	}
	if err := ValidateTableName(name); err != nil {
		return Table{}, err
	}
	t := NewTable(name, columns)

	var n int64
	for n < int64(sampleSize) {
		fields, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, err
		}
		n++
		if err := t.Observe(n, fields); err != nil {
			return Table{}, err
		}
	}
	if n == 0 {
		return Table{}, ErrEmptyInput
	}

	t.Finalize()
	return t, nil
}
