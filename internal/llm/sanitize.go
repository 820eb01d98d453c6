package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

var labelSynonyms = map[string]string{
	"ORGANIZATION": "ORG",
	"ORGANISATION": "ORG",
	"COMPANY":      "ORG",
	"PER":          "PERSON",
	"LOCATION":     "GPE",
	"LOC":          "GPE",
	"COUNTRY":      "GPE",
	"AMOUNT":       "MONEY",
	"CURRENCY":     "MONEY",
	"PERCENTAGE":   "PERCENT",
}

// StripCodeFence removes a ```json ... ``` wrapper some models add despite instructions.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

// NormalizeSummaryJSON turns the shapes models return for a summary into {"summary": "..."}:
// - plain text instead of JSON
// - synonyms of the summary key (caption, text, result)
// - extra keys
func NormalizeSummaryJSON(raw []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		text := strings.TrimSpace(string(raw))
		if text == "" {
			return nil, nil, fmt.Errorf("sanitize: empty summary")
		}
		b, err := json.Marshal(map[string]string{"summary": text})
		return b, []string{"(plain text)"}, err
	}

	var dropped []string
	summary, _ := m["summary"].(string)
	for _, k := range []string{"caption", "text", "result"} {
		if v, ok := m[k].(string); ok && summary == "" {
			summary = v
			dropped = append(dropped, k+"->summary")
		}
	}
	for k := range m {
		if k != "summary" && !slices.Contains(dropped, k+"->summary") {
			dropped = append(dropped, k+"(unknown)")
		}
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return nil, dropped, fmt.Errorf("sanitize: no summary field")
	}
	b, err := json.Marshal(map[string]string{"summary": summary})
	return b, dropped, err
}

// NormalizeEntitiesJSON repairs the common ways models drift from EntitiesJSONSchema:
// - a bare array instead of {"entities": [...]}
// - "entity"/"type" keys instead of "text"/"label"
// - label synonyms (ORGANIZATION -> ORG, LOCATION -> GPE)
// - empty, duplicate or unknown-label entities
func NormalizeEntitiesJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var items []map[string]any
	var wrapped struct {
		Entities []map[string]any `json:"entities"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Entities != nil {
		items = wrapped.Entities
	} else if err := json.Unmarshal(raw, &items); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	pick := func(m map[string]any, keys ...string) string {
		for _, k := range keys {
			if v, ok := m[k].(string); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
		return ""
	}

	dropped := make([]string, 0, 4)
	seen := make(map[Entity]struct{}, len(items))
	out := make([]Entity, 0, len(items))
	for _, it := range items {
		e := Entity{
			Text:  pick(it, "text", "entity", "name", "value"),
			Label: strings.ToUpper(pick(it, "label", "type", "category")),
		}
		if syn, ok := labelSynonyms[e.Label]; ok {
			e.Label = syn
		}
		switch {
		case e.Text == "":
			dropped = append(dropped, "(empty text)")
			continue
		case !slices.Contains(EntityLabels, e.Label):
			dropped = append(dropped, e.Text+"("+e.Label+")")
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}

	b, err := json.Marshal(map[string]any{"entities": out})
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.entities.normalize_sanitize", "dropped", dropped)
	}
	return b, dropped, nil
}
