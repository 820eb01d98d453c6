package batch

import (
	"context"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docs-extractor/constants"
	"github.com/joseph-ayodele/docs-extractor/internal/common"
	"github.com/joseph-ayodele/docs-extractor/internal/ingest"
	"github.com/joseph-ayodele/docs-extractor/internal/pipeline"
	"github.com/joseph-ayodele/docs-extractor/internal/sink"
)

// DocumentOutcome is one entry of a batch report.
type DocumentOutcome struct {
	Document string `json:"document"`
	pipeline.DocumentReport
}

// BatchReport summarizes a run.
type BatchReport struct {
	RunID      string            `json:"run_id"`
	InputDir   string            `json:"input_dir"`
	OutputRoot string            `json:"output_root"`
	Workers    int               `json:"workers"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	DurationMS int64             `json:"duration_ms"`
	Total      int               `json:"total"`
	Succeeded  int               `json:"succeeded"`
	Partial    int               `json:"partial"`
	Failed     int               `json:"failed"`
	Skipped    int               `json:"skipped"`
	Documents  []DocumentOutcome `json:"documents"`
}

// Orchestrator fans a directory of documents out to a bounded worker pool.
type Orchestrator struct {
	proc       DocumentProcessor
	logger     *slog.Logger
	workers    int
	queueSize  int
	timeout    time.Duration
	skipHidden bool
}

type Option func(*Orchestrator)

func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithDocumentTimeout bounds the processing of each document; 0 disables it.
func WithDocumentTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.timeout = d
		}
	}
}

func WithSkipHidden(skip bool) Option {
	return func(o *Orchestrator) { o.skipHidden = skip }
}

func NewOrchestrator(proc DocumentProcessor, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		proc:      proc,
		logger:    logger,
		workers:   runtime.NumCPU(),
		queueSize: 0,
		timeout:   10 * time.Minute,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run processes every regular file directly inside inputDir into
// outputRoot/<name>/ and writes outputRoot/batch_report.json. A failing
// document never stops the others. The error is non-nil only when the batch
// could not run at all (unreadable input directory, unwritable report).
// When ctx is cancelled no further documents start and the unstarted ones are
// reported as skipped.
func (o *Orchestrator) Run(ctx context.Context, inputDir, outputRoot string) (BatchReport, error) {
	start := time.Now()
	runID := uuid.NewString()
	ctx = common.WithRunID(ctx, runID)
	log := common.LoggerFromContext(ctx, o.logger)

	rep := BatchReport{RunID: runID, InputDir: inputDir, OutputRoot: outputRoot, Workers: o.workers, StartedAt: start}

	paths, stats, err := ingest.ListDocuments(inputDir, o.skipHidden)
	if err != nil {
		log.Error("batch.list.failed", "input_dir", inputDir, "error", err)
		return rep, err
	}
	if err := sink.EnsureDir(outputRoot); err != nil {
		return rep, err
	}
	log.Info("batch.start",
		"input_dir", inputDir,
		"output_root", outputRoot,
		"documents", len(paths),
		"scanned", stats.Scanned,
		"skipped_entries", stats.Skipped+stats.Hidden,
		"workers", o.workers,
	)

	names := ingest.OutputNames(paths)
	jobs := make([]Job, len(paths))
	for i, p := range paths {
		jobs[i] = Job{Index: i, Input: p, Name: names[p], OutputDir: filepath.Join(outputRoot, names[p])}
	}

	pool := newWorkerPool(o.proc, o.logger, min(o.workers, max(len(jobs), 1)), o.queueSize, o.timeout, len(jobs))
	pool.start(ctx)
	pool.submit(ctx, jobs)
	rep.Documents = pool.wait()

	rep.Total = len(rep.Documents)
	for _, d := range rep.Documents {
		switch d.Status {
		case constants.DocumentStatusSucceeded:
			rep.Succeeded++
		case constants.DocumentStatusPartial:
			rep.Partial++
		case constants.DocumentStatusFailed:
			rep.Failed++
		case constants.DocumentStatusSkipped:
			rep.Skipped++
		}
	}
	rep.FinishedAt = time.Now()
	rep.DurationMS = rep.FinishedAt.Sub(start).Milliseconds()

	if err := sink.WriteJSON(filepath.Join(outputRoot, constants.BatchReport), rep); err != nil {
		log.Error("batch.report.write_failed", "error", err)
		return rep, err
	}
	log.Info("batch.done",
		"total", rep.Total,
		"succeeded", rep.Succeeded,
		"partial", rep.Partial,
		"failed", rep.Failed,
		"skipped", rep.Skipped,
		"elapsed_ms", rep.DurationMS,
	)
	return rep, nil
}
