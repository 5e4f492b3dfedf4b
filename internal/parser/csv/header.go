package csv

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const utf8BOM = "\uFEFF"

// CleanHeader strips a UTF-8 BOM from the first header cell and surrounding
// whitespace from every cell. With normalize set, names are also rewritten by
// NormalizeName. The input slice is not modified.
func CleanHeader(hdr []string, normalize bool) []string {
	out := make([]string, len(hdr))
	for i, h := range hdr {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		h = strings.TrimSpace(h)
		if normalize {
			h = NormalizeName(h)
		}
		out[i] = h
	}
	return out
}

// NormalizeName turns a free-form header into a lower-case identifier:
// accents are removed, runs of space, '-', '.' and '_' collapse into a single
// underscore and any other character is dropped. A name that normalizes to
// nothing becomes "col".
func NormalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	// Decompose, remove nonspacing marks, recompose.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, err := transform.String(t, s)
	if err != nil {
		ascii = s
	}

	var b strings.Builder
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteByte('_')
				prevUnderscore = true
			}
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "col"
	}
	return name
}
