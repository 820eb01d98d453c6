package ocr

import (
	"regexp"
	"strings"
)

var (
	reCRLF        = regexp.MustCompile(`\r\n?`)
	reTabs        = regexp.MustCompile(`\t+`)
	reMultiSpace  = regexp.MustCompile(` {2,}`)
	reMultiBlank  = regexp.MustCompile(`\n{3,}`)
	reBlankSpaces = regexp.MustCompile(`(?m)^[ \f]+$`)
)

var reBoxNoise = regexp.MustCompile(`(?m)^\s*[_\-]{3,}\s*$`)

// Normalize collapses noisy whitespace. Conservative: keeps line breaks and
// collapses >2 newlines into a single blank line, so paragraphs stay split on
// blank lines. Digits are never rewritten.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reBlankSpaces.ReplaceAllString(s, "")
	// collapse too many blank lines
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	// trim trailing spaces on lines
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(s)
}
