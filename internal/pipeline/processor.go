package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/docs-extractor/constants"
	"github.com/joseph-ayodele/docs-extractor/internal/common"
	"github.com/joseph-ayodele/docs-extractor/internal/document"
	"github.com/joseph-ayodele/docs-extractor/internal/extract"
	"github.com/joseph-ayodele/docs-extractor/internal/findings"
	"github.com/joseph-ayodele/docs-extractor/internal/relate"
)

// Stage names used in reports and logs.
const (
	StageOpen          = "open"
	StageText          = "text"
	StageImages        = "images"
	StageTables        = "tables"
	StageRelationships = "relationships"
	StageFindings      = "findings"
)

// Processor runs every extraction stage for one document.
type Processor struct {
	Logger   *slog.Logger
	Text     extract.TextExtractor
	Images   extract.ArtifactExtractor
	Tables   extract.ArtifactExtractor
	Mapper   *relate.Mapper
	Findings *findings.Aggregator
}

func NewProcessor(logger *slog.Logger, text extract.TextExtractor, images, tables extract.ArtifactExtractor, mapper *relate.Mapper, agg *findings.Aggregator) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if mapper == nil {
		mapper = relate.NewMapper(logger)
	}
	if agg == nil {
		agg = findings.NewAggregator(nil, nil, 0, logger)
	}
	return &Processor{Logger: logger, Text: text, Images: images, Tables: tables, Mapper: mapper, Findings: agg}
}

// StageReport is the outcome of one stage.
type StageReport struct {
	Stage       string               `json:"stage"`
	OK          bool                 `json:"ok"`
	Count       int                  `json:"count"`
	Diagnostics []extract.Diagnostic `json:"diagnostics,omitempty"`
	Error       string               `json:"error,omitempty"`
	ErrorKind   string               `json:"error_kind,omitempty"`
	DurationMS  int64                `json:"duration_ms"`
}

// DocumentReport is the outcome of processing one document.
type DocumentReport struct {
	Input        string                   `json:"input"`
	OutputDir    string                   `json:"output_dir"`
	Kind         constants.DocumentKind   `json:"kind,omitempty"`
	Hash         string                   `json:"sha256,omitempty"`
	Status       constants.DocumentStatus `json:"status"`
	Language     string                   `json:"language,omitempty"`
	Paragraphs   int                      `json:"paragraphs"`
	Images       int                      `json:"images"`
	Tables       int                      `json:"tables"`
	TextToImages int                      `json:"text_to_images"`
	TextToTables int                      `json:"text_to_tables"`
	Stages       []StageReport            `json:"stages"`
	Error        string                   `json:"error,omitempty"`
	StartedAt    time.Time                `json:"started_at"`
	DurationMS   int64                    `json:"duration_ms"`
}

// Process opens inputPath, runs text, image and table extraction concurrently,
// then maps relationships and writes the findings report under outDir.
// A stage that errors or panics marks the document FAILED; the other stages
// still run and their outputs are kept. A document whose kind every
// extraction stage declines is SKIPPED. The returned error joins the stage
// errors and is nil unless the status is FAILED.
func (p *Processor) Process(ctx context.Context, inputPath, outDir string) (DocumentReport, error) {
	start := time.Now()
	rep := DocumentReport{Input: inputPath, OutputDir: outDir, StartedAt: start}
	log := common.LoggerFromContext(ctx, p.Logger)

	doc, err := document.Open(inputPath)
	if err != nil {
		rep.Stages = append(rep.Stages, failedStage(StageOpen, err, 0))
		return p.finish(log, rep, start, err)
	}
	rep.Kind, rep.Hash = doc.Kind, doc.Hash
	log = log.With("kind", string(doc.Kind))
	log.Info("pipeline.document.start", "input", inputPath, "output_dir", outDir, "size", doc.Size)

	var (
		text                  extract.TextResult
		images, tables        extract.ArtifactList
		textErr, imgErr, tErr error
		textDur, imgDur, tDur time.Duration
	)
	// text and tables both read the PDF pages; OCR each page once
	ctx = document.WithPageCache(ctx)
	var g errgroup.Group
	g.Go(func() error {
		t0 := time.Now()
		textErr = guard(StageText, func() (err error) {
			text, err = p.Text.Extract(ctx, doc, outDir)
			return err
		})
		textDur = time.Since(t0)
		return nil
	})
	g.Go(func() error {
		t0 := time.Now()
		imgErr = guard(StageImages, func() (err error) {
			images, err = p.Images.Extract(ctx, doc, outDir)
			return err
		})
		imgDur = time.Since(t0)
		return nil
	})
	g.Go(func() error {
		t0 := time.Now()
		tErr = guard(StageTables, func() (err error) {
			tables, err = p.Tables.Extract(ctx, doc, outDir)
			return err
		})
		tDur = time.Since(t0)
		return nil
	})
	_ = g.Wait()

	rep.Stages = append(rep.Stages,
		stageReport(log, StageText, len(text.Paragraphs), text.Diagnostics, textErr, textDur),
		stageReport(log, StageImages, len(images.Artifacts), images.Diagnostics, imgErr, imgDur),
		stageReport(log, StageTables, len(tables.Artifacts), tables.Diagnostics, tErr, tDur),
	)
	rep.Language = text.Language
	rep.Paragraphs, rep.Images, rep.Tables = len(text.Paragraphs), len(images.Artifacts), len(tables.Artifacts)

	if text.Text == "" {
		log.Warn("pipeline.text.empty")
	}

	t0 := time.Now()
	var rel relate.Relationships
	relErr := guard(StageRelationships, func() (err error) {
		rel, err = p.Mapper.MapAndSave(ctx, text.Text, images.Names(), tables.Names(), outDir)
		return err
	})
	rep.TextToImages, rep.TextToTables = len(rel.TextToImages), len(rel.TextToTables)
	rep.Stages = append(rep.Stages, stageReport(log, StageRelationships, len(rel.TextToImages)+len(rel.TextToTables), nil, relErr, time.Since(t0)))

	t0 = time.Now()
	var found findings.Report
	findErr := guard(StageFindings, func() (err error) {
		found, err = p.Findings.Generate(ctx, doc.Name, text.Text, images.Artifacts, tables.Artifacts, outDir)
		return err
	})
	rep.Stages = append(rep.Stages, stageReport(log, StageFindings, len(found.Images)+len(found.Tables), nil, findErr, time.Since(t0)))

	return p.finish(log, rep, start, errors.Join(textErr, imgErr, tErr, relErr, findErr))
}

func (p *Processor) finish(log *slog.Logger, rep DocumentReport, start time.Time, err error) (DocumentReport, error) {
	rep.DurationMS = time.Since(start).Milliseconds()
	switch {
	case err != nil:
		rep.Status = constants.DocumentStatusFailed
		rep.Error = err.Error()
		log.Error("pipeline.document.failed", "error", err, "elapsed_ms", rep.DurationMS)
		return rep, err
	case unhandled(rep.Stages):
		rep.Status = constants.DocumentStatusSkipped
	case degraded(rep.Stages):
		rep.Status = constants.DocumentStatusPartial
	default:
		rep.Status = constants.DocumentStatusSucceeded
	}
	log.Info("pipeline.document.ok",
		"status", rep.Status,
		"paragraphs", rep.Paragraphs,
		"images", rep.Images,
		"tables", rep.Tables,
		"elapsed_ms", rep.DurationMS,
	)
	return rep, nil
}

// unhandled reports that every extraction stage declined the document's kind
// and produced nothing.
func unhandled(stages []StageReport) bool {
	declined := 0
	for _, s := range stages {
		switch s.Stage {
		case StageText, StageImages, StageTables:
		default:
			continue
		}
		if !s.OK || s.Count > 0 || len(s.Diagnostics) == 0 {
			return false
		}
		for _, d := range s.Diagnostics {
			if d.Kind != "unsupported" {
				return false
			}
		}
		declined++
	}
	return declined == 3
}

// degraded reports recovered problems other than a kind a stage does not handle.
func degraded(stages []StageReport) bool {
	for _, s := range stages {
		for _, d := range s.Diagnostics {
			if d.Kind != "unsupported" {
				return true
			}
		}
	}
	return false
}

// guard runs fn and converts a panic into an internal error.
func guard(stage string, fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = common.NewAppError("STAGE_PANIC", fmt.Sprintf("%s stage panicked: %v", stage, rec), common.ErrInternal)
		}
	}()
	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}
	return nil
}

func stageReport(log *slog.Logger, stage string, count int, diags []extract.Diagnostic, err error, d time.Duration) StageReport {
	if err != nil {
		log.Error("pipeline."+stage+".failed", "error_kind", common.Classify(err), "error", err)
		r := failedStage(stage, err, d)
		r.Count, r.Diagnostics = count, diags
		return r
	}
	log.Info("pipeline."+stage+".ok", "count", count, "diagnostics", len(diags), "elapsed_ms", d.Milliseconds())
	return StageReport{Stage: stage, OK: true, Count: count, Diagnostics: diags, DurationMS: d.Milliseconds()}
}

func failedStage(stage string, err error, d time.Duration) StageReport {
	return StageReport{
		Stage:      stage,
		Error:      err.Error(),
		ErrorKind:  common.Classify(err),
		DurationMS: d.Milliseconds(),
	}
}
