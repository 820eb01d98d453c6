package llm

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
)

// CanonicalLanguage maps whatever a backend returned ("en", "EN-us", "English",
// "eng") to a lower-case ISO 639 base code, or UnknownLanguage.
func CanonicalLanguage(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, UnknownLanguage) {
		return UnknownLanguage
	}
	if tag, ok := languageNames[strings.ToLower(code)]; ok {
		code = tag
	}
	tag, err := language.Parse(code)
	if err != nil || tag == language.Und {
		return UnknownLanguage
	}
	base, conf := tag.Base()
	if conf == language.No {
		return UnknownLanguage
	}
	return base.String()
}

var languageNames = map[string]string{
	"english":    "en",
	"french":     "fr",
	"german":     "de",
	"spanish":    "es",
	"portuguese": "pt",
	"italian":    "it",
	"dutch":      "nl",
}

// stopwords holds short, frequent words that identify a language.
var stopwords = map[string][]string{
	"en": {"the", "and", "of", "to", "in", "is", "for", "that", "with", "are", "as", "by", "on", "this", "was"},
	"fr": {"le", "la", "les", "et", "des", "du", "est", "pour", "que", "dans", "une", "sur", "par", "au", "aux"},
	"de": {"der", "die", "und", "das", "ist", "nicht", "mit", "den", "zu", "von", "für", "auf", "ein", "eine", "im"},
	"es": {"el", "los", "las", "y", "del", "que", "en", "por", "para", "con", "una", "es", "al", "se", "su"},
	"pt": {"o", "os", "as", "e", "do", "da", "dos", "das", "em", "para", "com", "uma", "não", "que", "ao"},
	"it": {"il", "gli", "le", "e", "della", "di", "che", "per", "con", "una", "non", "sono", "nel", "alla", "del"},
	"nl": {"de", "het", "een", "en", "van", "in", "is", "op", "dat", "met", "voor", "zijn", "niet", "te", "aan"},
}

// minStopwordHits is the evidence needed before committing to a language.
const minStopwordHits = 3

// detectByStopwords scores text against each stopword list and returns the
// best code, or UnknownLanguage when the evidence is too thin or tied.
func detectByStopwords(text string) string {
	sets := make(map[string]map[string]struct{}, len(stopwords))
	for code, words := range stopwords {
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[w] = struct{}{}
		}
		sets[code] = set
	}

	counts := make(map[string]int, len(stopwords))
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		for code, set := range sets {
			if _, ok := set[w]; ok {
				counts[code]++
			}
		}
	}

	best, bestN, tied := UnknownLanguage, 0, false
	for code, n := range counts {
		switch {
		case n > bestN:
			best, bestN, tied = code, n, false
		case n == bestN:
			tied = true
		}
	}
	if bestN < minStopwordHits || tied {
		return UnknownLanguage
	}
	return CanonicalLanguage(best)
}
