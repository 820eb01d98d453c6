package ocr

import (
	"regexp"
	"strings"
)

var (
	reYear   = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	reCurr   = regexp.MustCompile(`\b(usd|eur|gbp|cad|aud|inr|jpy|ngn|zar)\b|[$£€₦]`)
	reAmount = regexp.MustCompile(`\(?\b\d{1,3}(,\d{3})+(\.\d+)?\)?|\b\d+\.\d{2}\b`)
)

func hasYearPattern(s string) bool     { return reYear.MatchString(s) }
func hasCurrencyPattern(s string) bool { return reCurr.MatchString(s) }
func hasAmountPattern(s string) bool   { return reAmount.MatchString(s) }

// naive heuristic confidence based on decoded text characteristics
func heuristicConfidence(txt string) float32 {
	// boost if we see what financial statements are made of
	// (reporting years, currencies, grouped amounts)
	txtL := strings.ToLower(txt)
	score := float32(0.2) // base
	if hasYearPattern(txtL) {
		score += 0.2
	}
	if hasCurrencyPattern(txtL) {
		score += 0.15
	}
	if hasAmountPattern(txtL) {
		score += 0.15
	}
	if len(txt) > 120 {
		score += 0.1
	} // enough content
	if score > 1.0 {
		score = 1.0
	}
	return score
}
