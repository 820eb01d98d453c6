package llm

import (
	"strings"
	"unicode/utf8"
)

// BuildSystemPrompt composes the system message for a summarizer task.
func BuildSystemPrompt(task string) string {
	parts := []string{
		"You assist with annual reports and financial statements.",
		"Return ONLY JSON of the form {\"summary\": \"...\"}.",
	}
	switch strings.ToLower(strings.TrimSpace(task)) {
	case TaskCaption:
		parts = append(parts,
			"Write a one-sentence caption for the image described by the user.",
			"Do not invent content you cannot infer from the description.")
	default:
		parts = append(parts,
			"Summarize the user's text in at most three sentences.",
			"Keep figures, periods and currencies exactly as written.")
	}
	parts = append(parts, "Never output null.")
	return strings.Join(parts, " ")
}

// LanguageSystemPrompt asks for an ISO 639-1 code.
func LanguageSystemPrompt() string {
	return strings.Join([]string{
		"Identify the main language of the user's text.",
		"Return ONLY JSON of the form {\"language\": \"<ISO 639-1 code>\"}.",
		"If the text is too short or mixed, return {\"language\": \"unknown\"}.",
	}, " ")
}

// EntitiesSystemPrompt asks for named entities with a fixed label set.
func EntitiesSystemPrompt() string {
	return strings.Join([]string{
		"Extract named entities from the user's text.",
		"Return ONLY JSON of the form {\"entities\": [{\"text\": \"...\", \"label\": \"...\"}]}.",
		"label MUST be one of: " + strings.Join(EntityLabels, ", ") + ".",
		"Copy entity text verbatim. Return an empty list when there are none.",
	}, " ")
}

// BuildUserPrompt bounds text to maxChars runes, cutting at a word boundary when possible.
func BuildUserPrompt(text string, maxChars int) string {
	return Truncate(strings.TrimSpace(text), maxChars)
}

// Truncate returns at most maxChars runes of s; maxChars <= 0 means no limit.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	rs := []rune(s)[:maxChars]
	cut := string(rs)
	if i := strings.LastIndexAny(cut, " \n\t"); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}
