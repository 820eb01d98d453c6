package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/docs-extractor/internal/common"
	"github.com/joseph-ayodele/docs-extractor/internal/document/documenttest"
)

type recordingFallback struct {
	mu    sync.Mutex
	pages []int
}

func (f *recordingFallback) PageText(_ context.Context, _ string, page int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages = append(f.pages, page)
	return fmt.Sprintf("ocr page %d", page), nil
}

func writePDF(t *testing.T, raw []byte) Document {
	t.Helper()
	p := filepath.Join(t.TempDir(), "annual.pdf")
	if err := os.WriteFile(p, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := Open(p)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return doc
}

func trimmed(pages []Page) []Page {
	out := make([]Page, len(pages))
	for i, p := range pages {
		out[i] = Page{Number: p.Number, Text: strings.TrimSpace(p.Text)}
	}
	return out
}

func TestPagesReadsTextLayerPerPage(t *testing.T) {
	doc := writePDF(t, documenttest.PDF(
		documenttest.Page{Text: "Directors report"},
		documenttest.Page{Text: "Total assets and liabilities"},
		documenttest.Page{Text: "Equity"},
	))
	fallback := &recordingFallback{}

	pages, err := NewPageReader(fallback, nil).Pages(context.Background(), doc)
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	want := []Page{
		{Number: 1, Text: "Directors report"},
		{Number: 2, Text: "Total assets and liabilities"},
		{Number: 3, Text: "Equity"},
	}
	if diff := cmp.Diff(want, trimmed(pages)); diff != "" {
		t.Fatalf("pages mismatch (-want +got):\n%s", diff)
	}
	if len(fallback.pages) != 0 {
		t.Fatalf("fallback used for pages %v", fallback.pages)
	}
}

func TestPagesFallsBackForBlankPages(t *testing.T) {
	doc := writePDF(t, documenttest.PDF(
		documenttest.Page{Text: "Statement of cash flows"},
		documenttest.Page{},
	))
	fallback := &recordingFallback{}

	pages, err := NewPageReader(fallback, nil).Pages(context.Background(), doc)
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if diff := cmp.Diff([]int{2}, fallback.pages); diff != "" {
		t.Fatalf("fallback pages mismatch (-want +got):\n%s", diff)
	}
	if pages[1].Text != "ocr page 2" {
		t.Fatalf("page 2 = %+v", pages[1])
	}
}

// The text parser only accepts a header line ending right after the version;
// the structure parser tolerates trailing blanks, so the page count survives.
func TestPagesUnreadableTextLayerYieldsEmptyPages(t *testing.T) {
	raw := documenttest.PDFWithHeader("%PDF-1.4 \n",
		documenttest.Page{Text: "Directors report"},
		documenttest.Page{},
		documenttest.Page{Text: "Equity"},
	)
	doc := writePDF(t, raw)

	pages, err := NewPageReader(nil, nil).Pages(context.Background(), doc)
	if err != nil {
		t.Fatalf("Pages: %v, want empty pages", err)
	}
	want := []Page{{Number: 1}, {Number: 2}, {Number: 3}}
	if diff := cmp.Diff(want, pages); diff != "" {
		t.Fatalf("pages mismatch (-want +got):\n%s", diff)
	}

	fallback := &recordingFallback{}
	pages, err = NewPageReader(fallback, nil).Pages(context.Background(), doc)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, fallback.pages); diff != "" {
		t.Fatalf("fallback pages mismatch (-want +got):\n%s", diff)
	}
	if pages[2].Text != "ocr page 3" {
		t.Fatalf("page 3 = %+v", pages[2])
	}
}

func TestPagesCorruptFile(t *testing.T) {
	doc := writePDF(t, []byte("%PDF-1.4\nnot really a pdf"))
	_, err := NewPageReader(nil, nil).Pages(context.Background(), doc)
	if !errors.Is(err, common.ErrCorruptSource) {
		t.Fatalf("err = %v, want corrupt source", err)
	}
}

func TestPagesUnsupportedKind(t *testing.T) {
	_, err := NewPageReader(nil, nil).Pages(context.Background(), Document{Path: "notes.docx", Kind: "DOCX"})
	if !errors.Is(err, common.ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want unsupported", err)
	}
}

func TestPageCacheSharesOneRead(t *testing.T) {
	doc := writePDF(t, documenttest.PDF(documenttest.Page{}, documenttest.Page{}, documenttest.Page{}))
	fallback := &recordingFallback{}
	reader := NewPageReader(fallback, nil)
	ctx := WithPageCache(context.Background())

	var wg sync.WaitGroup
	results := make([][]Page, 4)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pages, err := reader.Pages(ctx, doc)
			if err != nil {
				t.Errorf("Pages: %v", err)
			}
			results[i] = pages
		}()
	}
	wg.Wait()

	if len(fallback.pages) != 3 {
		t.Fatalf("fallback ran for pages %v, want each page once", fallback.pages)
	}
	for _, pages := range results[1:] {
		if diff := cmp.Diff(results[0], pages); diff != "" {
			t.Fatalf("callers saw different pages (-first +other):\n%s", diff)
		}
	}

	// without the cache every call reads again
	if _, err := reader.Pages(context.Background(), doc); err != nil {
		t.Fatal(err)
	}
	if len(fallback.pages) != 6 {
		t.Fatalf("fallback calls = %d, want 6", len(fallback.pages))
	}
}
