package schema

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when inference sampled zero rows.
var ErrEmptyInput = errors.New("schema: input contains no data rows")

// SchemaError reports a row whose field count does not match the header.
// Row is the 1-based data row index (the header is not counted).
type SchemaError struct {
	Row  int64
	Got  int
	Want int
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: row %d has %d columns but schema expects %d", e.Row, e.Got, e.Want)
}

// InvalidIdentifierError reports a table name that fails validation. Rule
// names the check that failed.
type InvalidIdentifierError struct {
	Name string
	Rule string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("schema: invalid table name %q: %s", e.Name, e.Rule)
}
