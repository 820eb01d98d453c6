package llm

import (
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Heuristic is the offline NLP backend used when no model endpoint is configured.
// It is deterministic and safe for concurrent use.
type Heuristic struct {
	// MaxSummaryChars bounds the extractive summary, default 400.
	MaxSummaryChars int
}

var (
	reSentenceEnd = regexp.MustCompile(`[.!?](\s+|$)`)
	reImageName   = regexp.MustCompile(`image_page(\d+)_(\d+)`)

	reMoney   = regexp.MustCompile(`(?i)(?:[$£€₦]|\b(?:USD|EUR|GBP|NGN|ZAR)\s?)\s?\d{1,3}(?:,\d{3})*(?:\.\d+)?(?:\s?(?:million|billion|m|bn|k))?\b`)
	rePercent = regexp.MustCompile(`\b\d+(?:\.\d+)?\s?%`)
	reDate    = regexp.MustCompile(`\b(?:\d{1,2}\s(?:January|February|March|April|May|June|July|August|September|October|November|December)\s\d{4}|\d{4}-\d{2}-\d{2}|(?:January|February|March|April|May|June|July|August|September|October|November|December)\s\d{1,2},\s\d{4})\b`)
	reOrg     = regexp.MustCompile(`\b(?:[A-Z][A-Za-z&]+\s){1,4}(?:Plc|PLC|Ltd|Limited|Inc|LLC|Group|Bank|Holdings|Corporation|Company)\b`)
)

// Summarize returns the leading sentences of text for TaskSummarize, and a
// caption derived from the image name for TaskCaption.
func (h Heuristic) Summarize(_ context.Context, text, task string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return NoSummary
	}
	if strings.EqualFold(task, TaskCaption) {
		if m := reImageName.FindStringSubmatch(text); m != nil {
			if m[1] == "0" {
				return fmt.Sprintf("Embedded image %s of the document", m[2])
			}
			return fmt.Sprintf("Image %s on page %s", m[2], m[1])
		}
		return strings.TrimPrefix(text, "This is ")
	}

	limit := h.MaxSummaryChars
	if limit <= 0 {
		limit = 400
	}
	flat := strings.Join(strings.Fields(text), " ")
	var b strings.Builder
	rest := flat
	for n := 0; n < 3 && rest != ""; n++ {
		loc := reSentenceEnd.FindStringIndex(rest)
		sentence := rest
		if loc != nil {
			sentence = rest[:loc[0]+1]
			rest = rest[loc[1]:]
		} else {
			rest = ""
		}
		if b.Len() > 0 && b.Len()+len(sentence)+1 > limit {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(sentence)
	}
	return Truncate(b.String(), limit)
}

func (Heuristic) DetectLanguage(_ context.Context, text string) string {
	return detectByStopwords(text)
}

// Entities finds ORG, DATE, MONEY and PERCENT mentions by pattern, in order of first appearance.
func (Heuristic) Entities(_ context.Context, text string) []Entity {
	type hit struct {
		at int
		e  Entity
	}
	var hits []hit
	for _, p := range []struct {
		re    *regexp.Regexp
		label string
	}{
		{reOrg, "ORG"},
		{reDate, "DATE"},
		{reMoney, "MONEY"},
		{rePercent, "PERCENT"},
	} {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			hits = append(hits, hit{at: loc[0], e: Entity{Text: strings.TrimSpace(text[loc[0]:loc[1]]), Label: p.label}})
		}
	}

	slices.SortStableFunc(hits, func(a, b hit) int { return cmp.Compare(a.at, b.at) })

	seen := make(map[Entity]struct{}, len(hits))
	var out []Entity
	for _, h := range hits {
		if _, dup := seen[h.e]; dup {
			continue
		}
		seen[h.e] = struct{}{}
		out = append(out, h.e)
	}
	return out
}
