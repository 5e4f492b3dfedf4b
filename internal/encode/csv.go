// Package encode renders a batch of rows as the delimited text payload
// consumed by bulk-load sinks.
//
// Format: fields joined by ',' and rows terminated by '\n'. A field is quoted,
// with embedded quotes doubled, iff it contains a comma, a double quote or a
// newline. An empty field is written as an empty unquoted token, which sinks
// load as NULL.
package encode

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"

	"csvload/internal/batch"
)

// FieldCountError reports a row whose width does not match the table. Row is
// the 1-based data row index in the input.
type FieldCountError struct {
	Row  int64
	Got  int
	Want int
}

func (e *FieldCountError) Error() string {
	return fmt.Sprintf("encode: row %d has %d fields but table has %d columns", e.Row, e.Got, e.Want)
}

// CSV encodes every row of b. Each row must have exactly columns fields.
func CSV(b batch.Batch, columns int) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, b, columns); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV is CSV writing into buf. buf is left partially written on error.
func WriteCSV(buf *bytes.Buffer, b batch.Batch, columns int) error {
	for i, row := range b.Rows {
		if len(row) != columns {
			return &FieldCountError{Row: b.Offset + int64(i) + 1, Got: len(row), Want: columns}
		}
		for j, f := range row {
			if j > 0 {
				buf.WriteByte(',')
			}
			writeField(buf, f)
		}
		buf.WriteByte('\n')
	}
	return nil
}

func writeField(buf *bytes.Buffer, f string) {
	if !needsQuotes(f) {
		buf.WriteString(f)
		return
	}
	buf.WriteByte('"')
	buf.WriteString(strings.ReplaceAll(f, `"`, `""`))
	buf.WriteByte('"')
}

func needsQuotes(f string) bool {
	return strings.ContainsAny(f, ",\"\n")
}

// Fingerprint is a 64-bit hash of an encoded payload. Retries of the same
// batch share a fingerprint.
func Fingerprint(payload []byte) uint64 {
	return xxh3.Hash(payload)
}
