package findings

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/docs-extractor/constants"
	"github.com/joseph-ayodele/docs-extractor/internal/common"
	"github.com/joseph-ayodele/docs-extractor/internal/export"
	"github.com/joseph-ayodele/docs-extractor/internal/extract"
	"github.com/joseph-ayodele/docs-extractor/internal/llm"
	"github.com/joseph-ayodele/docs-extractor/internal/sink"
)

// RelatedTableNote is appended to every table finding.
const RelatedTableNote = "Found a matching text chunk mentioning a table."

// Finding describes one artifact.
type Finding struct {
	Kind     extract.ArtifactKind `json:"kind"`
	Artifact string               `json:"artifact"`
	Summary  string               `json:"summary"` // caption for images
	Related  string               `json:"related,omitempty"`
	Line     string               `json:"line"`
}

// Report groups findings by artifact kind.
type Report struct {
	Document string    `json:"document,omitempty"`
	Images   []Finding `json:"images"`
	Tables   []Finding `json:"tables"`
}

// Lines renders the report as the flat per-kind lines.
func (r Report) Lines() map[string][]string {
	out := map[string][]string{"images": {}, "tables": {}}
	for _, f := range r.Images {
		out["images"] = append(out["images"], f.Line)
	}
	for _, f := range r.Tables {
		out["tables"] = append(out["tables"], f.Line)
	}
	return out
}

// Aggregator captions images, summarizes tables, and saves the findings report.
type Aggregator struct {
	summarizer  llm.Summarizer
	exporter    *export.Service
	concurrency int
	logger      *slog.Logger
}

func NewAggregator(summarizer llm.Summarizer, exporter *export.Service, concurrency int, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if summarizer == nil {
		summarizer = llm.Heuristic{}
	}
	if exporter == nil {
		exporter = export.NewService(logger)
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Aggregator{summarizer: summarizer, exporter: exporter, concurrency: concurrency, logger: logger}
}

// Build produces the report without writing it. A table is reported only when
// the document text mentions "table"; images are always reported.
func (a *Aggregator) Build(ctx context.Context, text string, images, tables []extract.Artifact) (Report, error) {
	log := common.LoggerFromContext(ctx, a.logger)
	mentionsTable := strings.Contains(strings.ToLower(text), "table")

	rep := Report{Images: make([]Finding, len(images)), Tables: []Finding{}}
	var tableFindings []Finding
	if mentionsTable {
		tableFindings = make([]Finding, len(tables))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, img := range images {
		g.Go(func() error {
			caption := a.summarizer.Summarize(gctx, "This is an image named "+img.Name, llm.TaskCaption)
			rep.Images[i] = Finding{
				Kind:     extract.ArtifactImage,
				Artifact: img.Name,
				Summary:  caption,
				Line:     fmt.Sprintf("Image: %s, Caption: %s", img.Name, caption),
			}
			return nil
		})
	}
	if mentionsTable {
		for i, tbl := range tables {
			g.Go(func() error {
				summary := llm.NoSummary
				if body, err := tableText(tbl.Path); err != nil {
					log.Warn("findings.table.read_failed", "table", tbl.Name, "error", err)
				} else {
					summary = a.summarizer.Summarize(gctx, body, llm.TaskSummarize)
				}
				tableFindings[i] = Finding{
					Kind:     extract.ArtifactTable,
					Artifact: tbl.Name,
					Summary:  summary,
					Related:  RelatedTableNote,
					Line:     fmt.Sprintf("Table: %s, Summary: %s, Related Text: %s", tbl.Name, summary, RelatedTableNote),
				}
				return nil
			})
		}
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	if mentionsTable {
		rep.Tables = tableFindings
	}
	return rep, nil
}

// tableText renders a saved table CSV one line per row, header first.
func tableText(path string) (string, error) {
	rows, err := sink.ReadCSV(path)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, strings.Join(row, " "))
	}
	return strings.Join(lines, "\n"), nil
}

// Generate builds the report and writes findings/findings_report.json and
// findings/findings_report.xlsx under outDir.
func (a *Aggregator) Generate(ctx context.Context, doc, text string, images, tables []extract.Artifact, outDir string) (Report, error) {
	start := time.Now()
	log := common.LoggerFromContext(ctx, a.logger)

	rep, err := a.Build(ctx, text, images, tables)
	if err != nil {
		return rep, err
	}
	rep.Document = doc

	dir := filepath.Join(outDir, constants.FindingsDir)
	if err := sink.EnsureDir(dir); err != nil {
		return rep, err
	}
	if err := sink.WriteJSON(filepath.Join(dir, constants.FindingsJSON), rep); err != nil {
		return rep, err
	}
	data, err := a.exporter.WorkbookXLSX(ctx, reportSheets(rep))
	if err != nil {
		return rep, common.WrapError(err, "findings workbook")
	}
	if err := sink.WriteFile(filepath.Join(dir, constants.FindingsXLSX), data); err != nil {
		return rep, err
	}

	log.Info("findings.report.ok",
		"images", len(rep.Images),
		"tables", len(rep.Tables),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rep, nil
}

func reportSheets(rep Report) []export.Sheet {
	images := export.Sheet{
		Name:    "Images",
		Headers: []string{"Image", "Caption", "Finding"},
		Widths:  map[string]float64{"A:A": 28, "B:B": 48, "C:C": 80},
	}
	for _, f := range rep.Images {
		images.Rows = append(images.Rows, []string{f.Artifact, f.Summary, f.Line})
	}
	tables := export.Sheet{
		Name:    "Tables",
		Headers: []string{"Table", "Summary", "Related Text", "Finding"},
		Widths:  map[string]float64{"A:A": 24, "B:B": 60, "C:C": 48, "D:D": 80},
	}
	for _, f := range rep.Tables {
		tables.Rows = append(tables.Rows, []string{f.Artifact, f.Summary, f.Related, f.Line})
	}
	return []export.Sheet{images, tables}
}
