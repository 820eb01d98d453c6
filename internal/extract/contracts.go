package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/docs-extractor/constants"
	"github.com/joseph-ayodele/docs-extractor/internal/common"
	"github.com/joseph-ayodele/docs-extractor/internal/document"
	"github.com/joseph-ayodele/docs-extractor/internal/llm"
)

// TextExtractor is the text stage: document -> text, paragraphs, language, entities.
type TextExtractor interface {
	Extract(ctx context.Context, doc document.Document, outDir string) (TextResult, error)
}

// ArtifactExtractor is an image or table stage: document -> files under outDir.
// A returned error means the stage itself failed (e.g. the output directory is
// unwritable); recoverable problems are reported in ArtifactList.Diagnostics.
type ArtifactExtractor interface {
	Extract(ctx context.Context, doc document.Document, outDir string) (ArtifactList, error)
}

type ArtifactKind string

const (
	ArtifactImage ArtifactKind = "image"
	ArtifactTable ArtifactKind = "table"
)

// Artifact is one file written by an extractor.
type Artifact struct {
	Kind          ArtifactKind            `json:"kind"`
	Name          string                  `json:"name"` // base name, unique within its directory
	Path          string                  `json:"path"`
	Page          int                     `json:"page,omitempty"`
	Index         int                     `json:"index"`
	StatementType constants.StatementType `json:"statement_type,omitempty"`
}

// ArtifactList is the outcome of an artifact stage.
type ArtifactList struct {
	Artifacts   []Artifact
	Diagnostics []Diagnostic
	Duration    time.Duration
}

// Names returns the artifact base names in order.
func (l ArtifactList) Names() []string {
	out := make([]string, len(l.Artifacts))
	for i, a := range l.Artifacts {
		out[i] = a.Name
	}
	return out
}

// TextResult is the outcome of the text stage.
type TextResult struct {
	Text        string
	Pages       int
	Method      string // "pdf-text" | "docx" | "generic"
	Language    string
	Entities    []llm.Entity
	Paragraphs  []string // written file names
	Diagnostics []Diagnostic
	Duration    time.Duration
}

// Diagnostic is a recovered problem: the stage went on with an empty or partial result.
type Diagnostic struct {
	Stage   string `json:"stage"`
	Kind    string `json:"kind"` // unsupported | corrupt | collaborator | invalid_input | internal
	Message string `json:"message"`
}

func NewDiagnostic(stage string, err error) Diagnostic {
	return Diagnostic{Stage: stage, Kind: common.Classify(err), Message: err.Error()}
}
