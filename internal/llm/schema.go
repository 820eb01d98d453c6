package llm

// Entity labels accepted from any backend.
var EntityLabels = []string{"ORG", "PERSON", "GPE", "DATE", "MONEY", "PERCENT"}

// SummaryJSONSchema is the response shape for summaries and captions.
func SummaryJSONSchema() map[string]any {
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"summary": map[string]any{"type": "string"},
		},
		"required":             []string{"summary"},
		"additionalProperties": false,
	}
}

// LanguageJSONSchema is the response shape for language detection.
func LanguageJSONSchema() map[string]any {
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"language": map[string]any{"type": "string", "minLength": 2, "maxLength": 16},
		},
		"required":             []string{"language"},
		"additionalProperties": false,
	}
}

// EntitiesJSONSchema is the response shape for named entity recognition.
func EntitiesJSONSchema() map[string]any {
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"entities": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"text":  map[string]any{"type": "string", "minLength": 1},
						"label": map[string]any{"type": "string", "enum": EntityLabels},
					},
					"required":             []string{"text", "label"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"entities"},
		"additionalProperties": false,
	}
}
