// Package csv turns a delimited text file into a restartable, pull-based
// sequence of rows. Each call to Next yields one record as a slice of strings
// or an error; the caller reopens the input (via an Opener) to read it again.
//
// Field counts are deliberately not enforced here. A record whose width
// differs from the header is returned as-is so that schema inference and
// payload encoding can report the mismatch with their own error kinds.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"csvload/internal/schema"
)

// Opener reopens the underlying input from the beginning.
type Opener interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Options configures a Reader.
type Options struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune

	// HasHeader treats the first record as column names. Without a header the
	// columns are named col_0 .. col_{n-1} after the width of the first record.
	HasHeader bool

	// NormalizeHeaders rewrites header names with NormalizeName.
	NormalizeHeaders bool
}

// ParseError reports a malformed record. Line is the 1-based line where the
// record starts.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("csv: parse error on line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Reader yields records from a delimited text stream.
type Reader struct {
	cr     *csv.Reader
	closer io.Closer
	header []string

	// pending holds the first record when it was consumed to size a
	// header-less input.
	pending []string
	line    int
	rows    int64
}

// Open reopens src and returns a Reader positioned at the first data row.
func Open(ctx context.Context, src Opener, opt Options) (*Reader, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(rc, opt)
	if err != nil {
		_ = rc.Close()
		return nil, err
	}
	return r, nil
}

// NewReader reads the header (or sizes the input from its first record) and
// returns a Reader over the remaining records. An input without any record
// fails with schema.ErrEmptyInput.
func NewReader(rc io.ReadCloser, opt Options) (*Reader, error) {
	cr := csv.NewReader(rc)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.FieldsPerRecord = -1

	r := &Reader{cr: cr, closer: rc}

	first, err := r.read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv: read header: %w", schema.ErrEmptyInput)
	}
	if err != nil {
		return nil, err
	}

	if opt.HasHeader {
		r.header = CleanHeader(first, opt.NormalizeHeaders)
		return r, nil
	}

	r.header = make([]string, len(first))
	for i := range first {
		r.header[i] = "col_" + strconv.Itoa(i)
	}
	r.pending = first
	return r, nil
}

// Header returns the column names.
func (r *Reader) Header() []string { return r.header }

// Rows returns the number of data rows returned so far.
func (r *Reader) Rows() int64 { return r.rows }

// Next returns the next data row, or io.EOF when the input is exhausted.
// The returned slice is owned by the caller.
func (r *Reader) Next() ([]string, error) {
	if r.pending != nil {
		rec := r.pending
		r.pending = nil
		r.rows++
		return rec, nil
	}
	rec, err := r.read()
	if err != nil {
		return nil, err
	}
	r.rows++
	return rec, nil
}

// Close closes the underlying input.
func (r *Reader) Close() error { return r.closer.Close() }

func (r *Reader) read() ([]string, error) {
	rec, err := r.cr.Read()
	if err == nil {
		r.line, _ = r.cr.FieldPos(0)
		return rec, nil
	}
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	line := r.line + 1
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		line = pe.StartLine
		err = pe.Err
	}
	return nil, &ParseError{Line: line, Err: err}
}

// ParseDelimiter decodes a user supplied delimiter. It accepts a single
// character, or the names "\t" and "tab" for a tab.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case ",":
		return ',', nil
	case `\t`, "tab":
		return '\t', nil
	case "|":
		return '|', nil
	case ";":
		return ';', nil
	}
	if len(s) == 1 && s[0] != '"' && s[0] != '\r' && s[0] != '\n' {
		return rune(s[0]), nil
	}
	return 0, fmt.Errorf("csv: invalid delimiter %q", s)
}
