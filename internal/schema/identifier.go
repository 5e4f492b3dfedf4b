package schema

import (
	"strings"
	"unicode"
)

// reservedWords may not be used as table names, in any case.
var reservedWords = []string{"SELECT", "INSERT", "UPDATE", "DELETE", "DROP", "CREATE", "ALTER", "EXEC"}

// Rules reported by InvalidIdentifierError.
const (
	RuleEmpty        = "must not be empty"
	RuleLeadingChar  = "must start with a letter or underscore"
	RuleCharacters   = "may contain only letters, digits and underscores"
	RuleReservedWord = "must not be an SQL keyword"
)

// ValidateTableName checks that name is safe to splice into generated SQL.
func ValidateTableName(name string) error {
	if name == "" {
		return &InvalidIdentifierError{Name: name, Rule: RuleEmpty}
	}
	for i, r := range name {
		if i == 0 && !unicode.IsLetter(r) && r != '_' {
			return &InvalidIdentifierError{Name: name, Rule: RuleLeadingChar}
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return &InvalidIdentifierError{Name: name, Rule: RuleCharacters}
		}
	}
	for _, w := range reservedWords {
		if strings.EqualFold(name, w) {
			return &InvalidIdentifierError{Name: name, Rule: RuleReservedWord}
		}
	}
	return nil
}
