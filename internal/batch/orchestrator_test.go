package batch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/docs-extractor/constants"
	"github.com/joseph-ayodele/docs-extractor/internal/common"
	"github.com/joseph-ayodele/docs-extractor/internal/document"
	"github.com/joseph-ayodele/docs-extractor/internal/extract"
	"github.com/joseph-ayodele/docs-extractor/internal/pipeline"
	"github.com/joseph-ayodele/docs-extractor/internal/sink"
)

type stubText struct{}

func (stubText) Extract(_ context.Context, doc document.Document, outDir string) (extract.TextResult, error) {
	text := "Table of contents for " + doc.Name
	if err := sink.WriteFile(filepath.Join(outDir, constants.ParagraphsDir, "paragraph_1.txt"), []byte(text)); err != nil {
		return extract.TextResult{}, err
	}
	return extract.TextResult{Text: text, Paragraphs: []string{"paragraph_1.txt"}}, nil
}

type stubImages struct{}

func (stubImages) Extract(context.Context, document.Document, string) (extract.ArtifactList, error) {
	return extract.ArtifactList{}, nil
}

// stubTables fails for the document named failOn.
type stubTables struct {
	failOn string
}

func (s stubTables) Extract(_ context.Context, doc document.Document, outDir string) (extract.ArtifactList, error) {
	if doc.Name == s.failOn {
		return extract.ArtifactList{}, errors.New("table structure service crashed")
	}
	p := filepath.Join(outDir, constants.TablesDir, "table_SOFP_1.csv")
	if err := sink.WriteCSV(p, [][]string{{"0", "1"}, {"Cash", "150"}}); err != nil {
		return extract.ArtifactList{}, err
	}
	return extract.ArtifactList{Artifacts: []extract.Artifact{
		{Kind: extract.ArtifactTable, Name: "table_SOFP_1.csv", Path: p, Index: 1, StatementType: constants.SOFP},
	}}, nil
}

func inputDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("stub "+n), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestRunIsolatesFailingDocument(t *testing.T) {
	in := inputDir(t, "a.pdf", "b.pdf", "c.docx")
	out := t.TempDir()
	proc := pipeline.NewProcessor(nil, stubText{}, stubImages{}, stubTables{failOn: "b"}, nil, nil)

	rep, err := NewOrchestrator(proc, nil, WithWorkers(2)).Run(context.Background(), in, out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Total != 3 || rep.Succeeded != 2 || rep.Failed != 1 || rep.Skipped != 0 {
		t.Fatalf("counts = %+v", rep)
	}
	got := map[string]constants.DocumentStatus{}
	for _, d := range rep.Documents {
		got[d.Document] = d.Status
	}
	want := map[string]constants.DocumentStatus{
		"a": constants.DocumentStatusSucceeded,
		"b": constants.DocumentStatusFailed,
		"c": constants.DocumentStatusSucceeded,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("statuses mismatch (-want +got):\n%s", diff)
	}

	for _, name := range []string{"a", "c"} {
		p := filepath.Join(out, name, constants.FindingsDir, constants.FindingsJSON)
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing findings for %s: %v", name, err)
		}
		p = filepath.Join(out, name, constants.TablesDir, "table_SOFP_1.csv")
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing table for %s: %v", name, err)
		}
	}
	// the failed document still gets its text and report
	if _, err := os.Stat(filepath.Join(out, "b", constants.ParagraphsDir, "paragraph_1.txt")); err != nil {
		t.Errorf("missing paragraph for b: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(out, constants.BatchReport))
	if err != nil {
		t.Fatal(err)
	}
	var saved BatchReport
	if err := json.Unmarshal(b, &saved); err != nil {
		t.Fatal(err)
	}
	if saved.RunID != rep.RunID || saved.Failed != 1 || len(saved.Documents) != 3 {
		t.Fatalf("saved report = %+v", saved)
	}
	if saved.Documents[1].Document != "b" || saved.Documents[1].Error == "" {
		t.Fatalf("saved b = %+v", saved.Documents[1])
	}
}

func TestRunDisambiguatesOutputFolders(t *testing.T) {
	in := inputDir(t, "a.pdf", "a.docx")
	out := t.TempDir()
	proc := pipeline.NewProcessor(nil, stubText{}, stubImages{}, stubTables{}, nil, nil)

	rep, err := NewOrchestrator(proc, nil).Run(context.Background(), in, out)
	if err != nil {
		t.Fatal(err)
	}
	var dirs []string
	for _, d := range rep.Documents {
		dirs = append(dirs, filepath.Base(d.OutputDir))
	}
	if diff := cmp.Diff([]string{"a_docx", "a_pdf"}, dirs); diff != "" {
		t.Fatalf("output dirs mismatch (-want +got):\n%s", diff)
	}
}

type countingProcessor struct {
	calls atomic.Int32
}

func (c *countingProcessor) Process(context.Context, string, string) (pipeline.DocumentReport, error) {
	c.calls.Add(1)
	return pipeline.DocumentReport{Status: constants.DocumentStatusSucceeded}, nil
}

func TestRunCancelledSchedulesNothing(t *testing.T) {
	in := inputDir(t, "a.pdf", "b.pdf", "c.pdf")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	proc := &countingProcessor{}

	rep, err := NewOrchestrator(proc, nil, WithWorkers(2)).Run(ctx, in, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if proc.calls.Load() != 0 {
		t.Fatalf("processed %d documents after cancellation", proc.calls.Load())
	}
	if rep.Skipped != 3 {
		t.Fatalf("report = %+v", rep)
	}
}

type panickingProcessor struct{}

func (panickingProcessor) Process(context.Context, string, string) (pipeline.DocumentReport, error) {
	panic("boom")
}

func TestRunRecoversProcessorPanic(t *testing.T) {
	rep, err := NewOrchestrator(panickingProcessor{}, nil).Run(context.Background(), inputDir(t, "a.pdf"), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Failed != 1 || rep.Documents[0].Status != constants.DocumentStatusFailed {
		t.Fatalf("report = %+v", rep)
	}
}

type slowProcessor struct{}

func (slowProcessor) Process(ctx context.Context, input, _ string) (pipeline.DocumentReport, error) {
	<-ctx.Done()
	return pipeline.DocumentReport{Input: input, Status: constants.DocumentStatusFailed}, common.WrapError(ctx.Err(), "process")
}

func TestRunDocumentTimeout(t *testing.T) {
	rep, err := NewOrchestrator(slowProcessor{}, nil, WithDocumentTimeout(20*time.Millisecond)).Run(context.Background(), inputDir(t, "a.pdf"), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Failed != 1 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestRunMissingInputDir(t *testing.T) {
	_, err := NewOrchestrator(&countingProcessor{}, nil).Run(context.Background(), filepath.Join(t.TempDir(), "none"), t.TempDir())
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) records(t *testing.T) []map[string]any {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(b.buf.Bytes()))
	for sc.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("decode %q: %v", sc.Text(), err)
		}
		out = append(out, rec)
	}
	return out
}

type loggingProcessor struct{}

func (loggingProcessor) Process(ctx context.Context, input, _ string) (pipeline.DocumentReport, error) {
	common.LoggerFromContext(ctx, nil).Info("pipeline.document.ok", "input", input)
	return pipeline.DocumentReport{Input: input, Status: constants.DocumentStatusSucceeded}, nil
}

func TestRunScopesLoggerToWorker(t *testing.T) {
	var out lockedBuffer
	logger := slog.New(slog.NewJSONHandler(&out, nil))

	rep, err := NewOrchestrator(loggingProcessor{}, logger, WithWorkers(1)).Run(context.Background(), inputDir(t, "annual.pdf"), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, rec := range out.records(t) {
		if rec["msg"] != "pipeline.document.ok" {
			continue
		}
		found = true
		if rec["run_id"] != rep.RunID || rec["document"] != "annual" || rec["worker_id"] != float64(1) {
			t.Fatalf("record = %v", rec)
		}
	}
	if !found {
		t.Fatal("processor record not written through the worker logger")
	}
}

func TestRunKeepsReportNameFree(t *testing.T) {
	out := t.TempDir()
	proc := pipeline.NewProcessor(nil, stubText{}, stubImages{}, stubTables{}, nil, nil)
	rep, err := NewOrchestrator(proc, nil).Run(context.Background(), inputDir(t, "batch_report.json.pdf"), out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Succeeded != 1 || filepath.Base(rep.Documents[0].OutputDir) != "batch_report.json_pdf" {
		t.Fatalf("report = %+v", rep)
	}
	fi, err := os.Stat(filepath.Join(out, constants.BatchReport))
	if err != nil || fi.IsDir() {
		t.Fatalf("batch report not written as a file: %v", err)
	}
}
