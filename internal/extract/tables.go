package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/docs-extractor/constants"
	"github.com/joseph-ayodele/docs-extractor/internal/common"
	"github.com/joseph-ayodele/docs-extractor/internal/document"
	"github.com/joseph-ayodele/docs-extractor/internal/export"
	"github.com/joseph-ayodele/docs-extractor/internal/sink"
	"github.com/joseph-ayodele/docs-extractor/internal/tables"
)

// TableClassifier is satisfied by *tables.Classifier.
type TableClassifier interface {
	ClassifyAll(ctx context.Context, doc document.Document, types []constants.StatementType) []tables.Result
}

// TableExtractor writes the classified tables of a document as CSV files and
// one combined workbook under tables/.
type TableExtractor struct {
	classifier TableClassifier
	types      []constants.StatementType
	exporter   *export.Service
	logger     *slog.Logger
}

func NewTableExtractor(classifier TableClassifier, types []constants.StatementType, exporter *export.Service, logger *slog.Logger) *TableExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if len(types) == 0 {
		types = constants.StatementTypes()
	}
	if exporter == nil {
		exporter = export.NewService(logger)
	}
	return &TableExtractor{classifier: classifier, types: types, exporter: exporter, logger: logger}
}

// Extract names each table table_<type>_<n>.csv, n counting from 1 within its
// statement type in classifier order. Classification problems become
// diagnostics; only write failures are returned.
func (e *TableExtractor) Extract(ctx context.Context, doc document.Document, outDir string) (ArtifactList, error) {
	start := time.Now()
	log := common.LoggerFromContext(ctx, e.logger)
	dir := filepath.Join(outDir, constants.TablesDir)

	if !doc.Kind.SupportsArtifacts() {
		err := common.UnsupportedError("table extractor", string(doc.Kind))
		log.Warn("extract.tables.unsupported", "kind", doc.Kind)
		return ArtifactList{Diagnostics: []Diagnostic{NewDiagnostic("tables", err)}, Duration: time.Since(start)}, nil
	}

	results := e.classifier.ClassifyAll(ctx, doc, e.types)
	if err := ctx.Err(); err != nil {
		return ArtifactList{}, err
	}
	if err := sink.EnsureDir(dir); err != nil {
		return ArtifactList{}, err
	}

	var (
		out    ArtifactList
		sheets []export.Sheet
	)
	for _, res := range results {
		if res.Diagnostic != nil {
			out.Diagnostics = append(out.Diagnostics, NewDiagnostic("tables."+string(res.StatementType), res.Diagnostic))
		}
		for i, t := range res.Tables {
			name := fmt.Sprintf("table_%s_%d.csv", res.StatementType, i+1)
			p := filepath.Join(dir, name)
			records := t.Records()
			if err := sink.WriteCSV(p, records); err != nil {
				return out, err
			}
			out.Artifacts = append(out.Artifacts, Artifact{
				Kind:          ArtifactTable,
				Name:          name,
				Path:          p,
				Page:          t.Provenance.Page,
				Index:         i + 1,
				StatementType: res.StatementType,
			})
			sheets = append(sheets, export.Sheet{
				Name:    strings.TrimSuffix(name, ".csv"),
				Headers: records[0],
				Rows:    records[1:],
			})
		}
		log.Debug("extract.tables.type_done",
			"statement_type", res.StatementType,
			"ranked_pages", len(res.Ranked),
			"tables", len(res.Tables),
		)
	}

	if len(sheets) > 0 {
		data, err := e.exporter.WorkbookXLSX(ctx, sheets)
		if err != nil {
			// the CSVs are already written; the workbook is a convenience copy
			log.Error("extract.tables.workbook_failed", "error", err)
			out.Diagnostics = append(out.Diagnostics, NewDiagnostic("tables.workbook", common.WrapError(err, "build workbook")))
		} else if err := sink.WriteFile(filepath.Join(dir, constants.TablesWorkbook), data); err != nil {
			return out, err
		}
	}
	out.Duration = time.Since(start)

	log.Info("extract.tables.ok",
		"kind", doc.Kind,
		"tables", len(out.Artifacts),
		"diagnostics", len(out.Diagnostics),
		"elapsed_ms", out.Duration.Milliseconds(),
	)
	return out, nil
}
