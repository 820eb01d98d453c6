package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/docs-extractor/constants"
	"github.com/joseph-ayodele/docs-extractor/internal/common"
	"github.com/joseph-ayodele/docs-extractor/internal/pipeline"
)

// Job is one document of a batch.
type Job struct {
	Index       int // position in the batch listing
	Input       string
	Name        string // output folder name
	OutputDir   string
	SubmittedAt time.Time
}

// DocumentProcessor processes one document; *pipeline.Processor implements it.
type DocumentProcessor interface {
	Process(ctx context.Context, inputPath, outDir string) (pipeline.DocumentReport, error)
}

// workerPool runs jobs on a fixed number of workers and stores each outcome at
// the job's index.
type workerPool struct {
	proc    DocumentProcessor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch chan Job
	wg sync.WaitGroup

	results []DocumentOutcome
}

func newWorkerPool(proc DocumentProcessor, logger *slog.Logger, workers, queueSize int, timeout time.Duration, total int) *workerPool {
	return &workerPool{
		proc:    proc,
		logger:  logger,
		workers: workers,
		timeout: timeout,
		ch:      make(chan Job, queueSize),
		results: make([]DocumentOutcome, total),
	}
}

func (q *workerPool) start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func(workerID int) {
			defer q.wg.Done()
			q.logger.Debug("batch.worker.started", "worker_id", workerID)

			for job := range q.ch {
				// queued before cancellation but not started
				if ctx.Err() != nil {
					q.results[job.Index] = skipped(job)
					continue
				}
				q.results[job.Index] = q.run(ctx, workerID, job)
			}

			q.logger.Debug("batch.worker.stopped", "worker_id", workerID)
		}(i + 1)
	}
}

func (q *workerPool) run(parent context.Context, workerID int, job Job) (out DocumentOutcome) {
	ctx := common.WithDocument(parent, job.Name)
	ctx, cancel := common.WithTimeout(ctx, q.timeout)
	defer cancel()
	log := common.LoggerFromContext(ctx, q.logger).With("worker_id", workerID)
	ctx = common.WithLogger(ctx, log)

	defer func() {
		if rec := recover(); rec != nil {
			err := common.NewAppError("DOCUMENT_PANIC", fmt.Sprintf("%v", rec), common.ErrInternal)
			log.Error("batch.document.failed", "error", err)
			out = DocumentOutcome{Document: job.Name, DocumentReport: pipeline.DocumentReport{
				Input:     job.Input,
				OutputDir: job.OutputDir,
				Status:    constants.DocumentStatusFailed,
				Error:     err.Error(),
			}}
		}
	}()

	rep, err := q.proc.Process(ctx, job.Input, job.OutputDir)
	if err != nil {
		log.Error("batch.document.failed", "input", job.Input, "error_kind", common.Classify(err), "error", err)
	} else {
		log.Info("batch.document.done", "input", job.Input, "status", rep.Status, "elapsed_ms", rep.DurationMS)
	}
	return DocumentOutcome{Document: job.Name, DocumentReport: rep}
}

// submit enqueues jobs in order until ctx is cancelled; the jobs it could not
// enqueue are recorded as skipped. It closes the queue when done.
func (q *workerPool) submit(ctx context.Context, jobs []Job) {
	defer close(q.ch)
	for i, job := range jobs {
		job.SubmittedAt = time.Now()
		select {
		case <-ctx.Done():
			q.logger.Warn("batch.schedule.cancelled", "remaining", len(jobs)-i)
			for _, rest := range jobs[i:] {
				q.results[rest.Index] = skipped(rest)
			}
			return
		case q.ch <- job:
		}
	}
}

func (q *workerPool) wait() []DocumentOutcome {
	q.wg.Wait()
	return q.results
}

func skipped(job Job) DocumentOutcome {
	return DocumentOutcome{Document: job.Name, DocumentReport: pipeline.DocumentReport{
		Input:     job.Input,
		OutputDir: job.OutputDir,
		Status:    constants.DocumentStatusSkipped,
	}}
}
