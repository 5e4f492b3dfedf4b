// Package schema infers a relational table schema from a sample of CSV rows.
//
// Inference is driven by a small type lattice: every raw value is classified
// into a Type by Infer, and the types seen in a column are combined with Merge
// into their least general common supertype. A Profile accumulates these
// observations per column, and InferTable drives the profiles over a
// bounded prefix of a row source to produce a Table.
package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Type is the inferred SQL type of a single value or of a whole column.
type Type uint8

// The zero value is Null, so a fresh column profile starts at the bottom of
// the lattice.
const (
	Null Type = iota
	Boolean
	SmallInt
	Integer
	BigInt
	Real
	Double
	Timestamp
	Date
	Text

	numTypes = int(Text) + 1
)

var typeNames = [numTypes]string{
	Null:      "null",
	Boolean:   "boolean",
	SmallInt:  "smallint",
	Integer:   "integer",
	BigInt:    "bigint",
	Real:      "real",
	Double:    "double",
	Timestamp: "timestamp",
	Date:      "date",
	Text:      "text",
}

// Types lists every Type in declaration order.
func Types() []Type {
	out := make([]Type, numTypes)
	for i := range out {
		out[i] = Type(i)
	}
	return out
}

func (t Type) String() string {
	if int(t) < numTypes {
		return typeNames[t]
	}
	return "Type(" + strconv.Itoa(int(t)) + ")"
}

// MarshalText renders the type by name.
func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText accepts the names produced by MarshalText.
func (t *Type) UnmarshalText(b []byte) error {
	for i, name := range typeNames {
		if strings.EqualFold(name, string(b)) {
			*t = Type(i)
			return nil
		}
	}
	return fmt.Errorf("schema: unknown type %q", b)
}

// IsInteger reports whether t is one of the integer types.
func (t Type) IsInteger() bool { return t == SmallInt || t == Integer || t == BigInt }

// IsFloat reports whether t is one of the floating point types.
func (t Type) IsFloat() bool { return t == Real || t == Double }

// IsNumeric reports whether t is an integer or floating point type.
func (t Type) IsNumeric() bool { return t.IsInteger() || t.IsFloat() }

// IsTemporal reports whether t is Date or Timestamp.
func (t Type) IsTemporal() bool { return t == Date || t == Timestamp }

// TimestampLayouts are tried in order when classifying a value as Timestamp.
// Month, day and hour accept one or two digits.
var TimestampLayouts = []string{
	"2006-1-2 15:04:05",
	"2006-1-2 15:04:05.999999999",
	"2006-1-2T15:04:05",
	"2006-1-2T15:04:05.999999999",
	"2006/1/2 15:04:05",
	"2-1-2006 15:04:05",
	"1/2/2006 15:04:05",
}

// DateLayouts are tried in order when classifying a value as Date.
var DateLayouts = []string{
	"2006-1-2",
	"2006/1/2",
	"2-1-2006",
	"1/2/2006",
	"2/1/2006",
}

// IsNullToken reports whether v denotes a missing value: the empty string,
// "null" in any case, or the COPY-style \N marker.
func IsNullToken(v string) bool {
	return v == "" || strings.EqualFold(v, "null") || strings.EqualFold(v, `\N`)
}

// Infer classifies a single raw value. Candidates are tried from the most
// specific to the least specific and the first successful parse wins.
func Infer(v string) Type {
	if IsNullToken(v) {
		return Null
	}
	if v == "true" || v == "false" {
		return Boolean
	}
	if _, err := strconv.ParseInt(v, 10, 16); err == nil {
		return SmallInt
	}
	if _, err := strconv.ParseInt(v, 10, 32); err == nil {
		return Integer
	}
	if _, err := strconv.ParseInt(v, 10, 64); err == nil {
		return BigInt
	}
	if plainFloat(v) {
		if _, err := strconv.ParseFloat(v, 32); err == nil {
			return Real
		}
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			return Double
		}
	}
	if _, ok := ParseTimestamp(v); ok {
		return Timestamp
	}
	if _, ok := ParseDate(v); ok {
		return Date
	}
	return Text
}

// plainFloat rejects the spellings strconv accepts but a decimal column
// should not: NaN, infinities, hex mantissas and digit separators.
func plainFloat(v string) bool {
	for i := 0; i < len(v); i++ {
		c := v[i]
		switch {
		case c >= '0' && c <= '9', c == '.', c == '+', c == '-', c == 'e', c == 'E':
		default:
			return false
		}
	}
	return true
}

// ParseTimestamp parses v with the first matching TimestampLayouts entry.
func ParseTimestamp(v string) (time.Time, bool) {
	return parseFirst(v, TimestampLayouts)
}

// ParseDate parses v with the first matching DateLayouts entry.
func ParseDate(v string) (time.Time, bool) {
	return parseFirst(v, DateLayouts)
}

func parseFirst(v string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
