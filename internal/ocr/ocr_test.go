package ocr

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/joseph-ayodele/docs-extractor/internal/common"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls   []call
	outputs map[string]string // by binary name
	fail    map[string]bool
}

func (f *fakeRunner) Run(_ context.Context, name string, _ *slog.Logger, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if f.fail[name] {
		return nil, []byte("boom"), errors.New("exit status 1")
	}
	if name == "pdftoppm" {
		// last arg is the output prefix
		prefix := args[len(args)-1]
		if err := os.WriteFile(prefix+"-3.png", []byte("png"), 0o644); err != nil {
			return nil, nil, err
		}
	}
	return []byte(f.outputs[name]), nil, nil
}

func TestLayoutTextSelectsOnePage(t *testing.T) {
	r := &fakeRunner{outputs: map[string]string{"pdftotext": "Assets    100\n\f"}}
	e := NewExtractorWithRunner(Config{}, r, nil)

	got, err := e.LayoutText(context.Background(), "/in/a.pdf", 3)
	if err != nil {
		t.Fatalf("LayoutText: %v", err)
	}
	if got != "Assets    100" {
		t.Fatalf("text = %q", got)
	}
	want := []string{"-layout", "-f", "3", "-l", "3", "-enc", "UTF-8", "-eol", "unix", "/in/a.pdf", "-"}
	if !slices.Equal(r.calls[0].args, want) {
		t.Fatalf("args = %v, want %v", r.calls[0].args, want)
	}
}

func TestPageTextFallsBackToOCR(t *testing.T) {
	r := &fakeRunner{outputs: map[string]string{
		"pdftotext": "\f",
		"tesseract": "Revenue   2024\n\n\n\nCost of sales",
	}}
	e := NewExtractorWithRunner(Config{EnableOCR: true}, r, nil)

	got, err := e.PageText(context.Background(), "/in/scan.pdf", 3)
	if err != nil {
		t.Fatalf("PageText: %v", err)
	}
	if got != "Revenue 2024\n\nCost of sales" {
		t.Fatalf("text = %q", got)
	}
	var names []string
	for _, c := range r.calls {
		names = append(names, c.name)
	}
	if !slices.Equal(names, []string{"pdftotext", "pdftoppm", "tesseract"}) {
		t.Fatalf("calls = %v", names)
	}
}

func TestPageTextWithoutOCRKeepsEmptyText(t *testing.T) {
	r := &fakeRunner{outputs: map[string]string{"pdftotext": ""}}
	e := NewExtractorWithRunner(Config{}, r, nil)

	got, err := e.PageText(context.Background(), "/in/scan.pdf", 1)
	if err != nil || got != "" {
		t.Fatalf("got %q, %v", got, err)
	}
	if len(r.calls) != 1 {
		t.Fatalf("expected only pdftotext, got %d calls", len(r.calls))
	}
}

func TestToolFailureIsCollaboratorError(t *testing.T) {
	r := &fakeRunner{fail: map[string]bool{"pdftotext": true}}
	e := NewExtractorWithRunner(Config{}, r, nil)

	_, err := e.LayoutText(context.Background(), "/in/a.pdf", 1)
	if !errors.Is(err, common.ErrCollaborator) {
		t.Fatalf("err = %v, want collaborator failure", err)
	}
}

type failingRunner struct {
	err error
}

func (f failingRunner) Run(context.Context, string, *slog.Logger, ...string) ([]byte, []byte, error) {
	return nil, nil, f.err
}

func TestToolErrorSurvivesWrapping(t *testing.T) {
	terr := &ToolError{Tool: "pdftotext", ExitCode: 1, Stderr: "Syntax Error: Couldn't read xref table"}
	e := NewExtractorWithRunner(Config{}, failingRunner{err: terr}, nil)

	_, err := e.PageText(context.Background(), "/in/a.pdf", 1)
	var got *ToolError
	if !errors.As(err, &got) || got.ExitCode != 1 {
		t.Fatalf("err = %v, want the tool error", err)
	}
	if !errors.Is(err, common.ErrCollaborator) || !strings.Contains(err.Error(), "xref table") {
		t.Fatalf("err = %v", err)
	}
}

func TestNormalizeKeepsDigits(t *testing.T) {
	in := "Note  01\r\n\r\n\r\n\r\nTotal\t\t1,200  "
	if got, want := Normalize(in), "Note 01\n\nTotal 1,200"; got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}
