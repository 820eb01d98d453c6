package llm

import "context"

// Fallback values returned when a collaborator cannot produce a result.
const (
	NoSummary       = "No Summary Available"
	UnknownLanguage = "unknown"
)

// Tasks understood by Summarizer.
const (
	TaskSummarize = "summarize"
	TaskCaption   = "generate caption"
)

// Entity is a named entity found in text.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"` // ORG, PERSON, GPE, DATE, MONEY, PERCENT
}

// Summarizer produces a summary or caption of text for task. It never fails:
// on any error it returns NoSummary.
type Summarizer interface {
	Summarize(ctx context.Context, text, task string) string
}

// LanguageDetector returns an ISO 639-1 code, or UnknownLanguage.
type LanguageDetector interface {
	DetectLanguage(ctx context.Context, text string) string
}

// EntityRecognizer returns the entities in text, or none on failure.
type EntityRecognizer interface {
	Entities(ctx context.Context, text string) []Entity
}

// NLP bundles the text collaborators one backend usually provides together.
type NLP interface {
	Summarizer
	LanguageDetector
	EntityRecognizer
}
