package relate

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/docs-extractor/constants"
	"github.com/joseph-ayodele/docs-extractor/internal/common"
	"github.com/joseph-ayodele/docs-extractor/internal/sink"
)

// NoteMentioned is the only note the mapper records.
const NoteMentioned = "Mentioned in text"

// Link ties one artifact to the document text.
type Link struct {
	Artifact string `json:"artifact"`
	Note     string `json:"note"`
}

// Relationships holds the two link namespaces. Each list is in artifact order
// and holds an artifact name at most once.
type Relationships struct {
	TextToImages []Link `json:"text_to_images"`
	TextToTables []Link `json:"text_to_tables"`
}

// Map links artifacts to text by a document-wide keyword check: every image
// is linked when the text mentions "figure" or "image" anywhere, every table
// when it mentions "table". Artifacts are keyed by base name.
func Map(text string, images, tables []string) Relationships {
	lower := strings.ToLower(text)
	rel := Relationships{TextToImages: []Link{}, TextToTables: []Link{}}
	if strings.Contains(lower, "figure") || strings.Contains(lower, "image") {
		rel.TextToImages = links(images)
	}
	if strings.Contains(lower, "table") {
		rel.TextToTables = links(tables)
	}
	return rel
}

func links(paths []string) []Link {
	out := make([]Link, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		name := filepath.Base(p)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, Link{Artifact: name, Note: NoteMentioned})
	}
	return out
}

// Summary is the file written for one namespace.
type Summary struct {
	Namespace     string `json:"namespace"`
	Relationships []Link `json:"relationships"`
}

// Mapper maps and persists relationships for one document at a time.
type Mapper struct {
	logger *slog.Logger
}

func NewMapper(logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mapper{logger: logger}
}

// MapAndSave maps the artifacts and writes one summary per namespace under
// outDir/relationships/<namespace>/<namespace>.json.
func (m *Mapper) MapAndSave(ctx context.Context, text string, images, tables []string, outDir string) (Relationships, error) {
	log := common.LoggerFromContext(ctx, m.logger)
	rel := Map(text, images, tables)

	for _, s := range []Summary{
		{Namespace: constants.TextToImages, Relationships: rel.TextToImages},
		{Namespace: constants.TextToTables, Relationships: rel.TextToTables},
	} {
		if err := common.ValidateValueAgainstSchema(SummaryJSONSchema(), s); err != nil {
			return rel, common.NewAppError("INVALID_RELATIONSHIPS", s.Namespace, fmt.Errorf("%w: %w", common.ErrInternal, err))
		}
		dir := filepath.Join(outDir, constants.RelationshipsDir, s.Namespace)
		if err := sink.EnsureDir(dir); err != nil {
			return rel, err
		}
		if err := sink.WriteJSON(filepath.Join(dir, s.Namespace+".json"), s); err != nil {
			return rel, err
		}
	}

	log.Info("relate.map.ok",
		"images", len(images),
		"tables", len(tables),
		"text_to_images", len(rel.TextToImages),
		"text_to_tables", len(rel.TextToTables),
	)
	return rel, nil
}

// SummaryJSONSchema is the shape of a saved relationship summary.
func SummaryJSONSchema() map[string]any {
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"namespace": map[string]any{"enum": []string{constants.TextToImages, constants.TextToTables}},
			"relationships": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"artifact": map[string]any{"type": "string", "minLength": 1},
						"note":     map[string]any{"type": "string", "minLength": 1},
					},
					"required":             []string{"artifact", "note"},
					"additionalProperties": false,
				},
				"uniqueItems": true,
			},
		},
		"required":             []string{"namespace", "relationships"},
		"additionalProperties": false,
	}
}
