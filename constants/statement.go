package constants

import (
	"strings"
)

// StatementType is a financial-report category with a keyword profile used to score pages.
type StatementType string

const (
	SOFP StatementType = "SOFP" // statement of financial position
	SOPL StatementType = "SOPL" // statement of profit or loss
	SOCF StatementType = "SOCF" // statement of cash flows
)

var allStatementTypes = []StatementType{
	SOFP,
	SOPL,
	SOCF,
}

// DefaultKeywords are the built-in keyword profiles, in scoring order.
var DefaultKeywords = map[StatementType][]string{
	SOFP: {"financial position", "assets", "liabilities", "equity"},
	SOPL: {"profit or loss", "revenue", "expense", "tax"},
	SOCF: {"cash flows", "investing", "operating", "financing"},
}

// StatementTypes returns the built-in statement types in their canonical order.
func StatementTypes() []StatementType {
	out := make([]StatementType, len(allStatementTypes))
	copy(out, allStatementTypes)
	return out
}

func AsStringSlice() []string {
	result := make([]string, len(allStatementTypes))
	for i, st := range allStatementTypes {
		result[i] = string(st)
	}
	return result
}

// Canonicalize maps a user-supplied label ("balance sheet", "sofp", ...) to a built-in type.
func Canonicalize(input string) (StatementType, bool) {
	if input == "" {
		return "", false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]StatementType{
		"balance sheet":                   SOFP,
		"financial position":              SOFP,
		"statement of financial position": SOFP,
		"income statement":                SOPL,
		"profit and loss":                 SOPL,
		"profit or loss":                  SOPL,
		"p&l":                             SOPL,
		"cash flow":                       SOCF,
		"cash flows":                      SOCF,
		"cash flow statement":             SOCF,
	}

	if st, ok := synonyms[normalized]; ok {
		return st, true
	}

	for _, st := range allStatementTypes {
		if normalized == strings.ToLower(string(st)) {
			return st, true
		}
	}

	return StatementType(strings.ToUpper(strings.TrimSpace(input))), false
}
