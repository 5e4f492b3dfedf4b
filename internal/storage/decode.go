package storage

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"csvload/internal/schema"
)

// DecodePayload parses an encoded batch back into typed rows for backends
// whose bulk APIs take Go values instead of delimited text. Field i of every
// row is converted with ConvertValue(field, types[i]).
func DecodePayload(payload []byte, types []schema.Type) ([][]any, error) {
	r := csv.NewReader(bytes.NewReader(payload))
	r.FieldsPerRecord = len(types)

	var rows [][]any
	for {
		// encoding/csv skips empty lines, which in a one-column payload are
		// NULL rows.
		if len(types) == 1 {
			for off := r.InputOffset(); off < int64(len(payload)) && payload[off] == '\n'; off++ {
				rows = append(rows, []any{nil})
			}
		}
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("storage: decode payload: %w", err)
		}
		row := make([]any, len(rec))
		for i, f := range rec {
			v, err := ConvertValue(f, types[i])
			if err != nil {
				return nil, fmt.Errorf("storage: decode payload row %d column %d: %w", len(rows)+1, i+1, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
}

// ConvertValue converts one field to the Go value matching t. An empty field
// is NULL. In a typed column the null tokens recognised by inference are NULL
// too; in a Text column they are kept verbatim.
func ConvertValue(s string, t schema.Type) (any, error) {
	if s == "" {
		return nil, nil
	}
	if t != schema.Text && t != schema.Null && schema.IsNullToken(s) {
		return nil, nil
	}
	switch {
	case t == schema.Boolean:
		switch s {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("invalid boolean %q", s)
	case t.IsInteger():
		return strconv.ParseInt(s, 10, 64)
	case t.IsFloat():
		return strconv.ParseFloat(s, 64)
	case t == schema.Timestamp:
		if ts, ok := schema.ParseTimestamp(s); ok {
			return ts, nil
		}
		// A Date value widened into a Timestamp column.
		if d, ok := schema.ParseDate(s); ok {
			return d, nil
		}
		return nil, fmt.Errorf("invalid timestamp %q", s)
	case t == schema.Date:
		if d, ok := schema.ParseDate(s); ok {
			return d, nil
		}
		return nil, fmt.Errorf("invalid date %q", s)
	default:
		return s, nil
	}
}
