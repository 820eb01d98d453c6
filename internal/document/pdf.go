package document

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/joseph-ayodele/docs-extractor/internal/common"
)

// PageTextFallback supplies text for a page whose embedded text layer is empty
// or unreadable (scanned pages, fonts the parser cannot decode).
type PageTextFallback interface {
	PageText(ctx context.Context, path string, page int) (string, error)
}

// PageReader reads the text of every page of a PDF.
type PageReader struct {
	fallback PageTextFallback
	logger   *slog.Logger
}

// NewPageReader creates a reader; fallback may be nil.
func NewPageReader(fallback PageTextFallback, logger *slog.Logger) *PageReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &PageReader{fallback: fallback, logger: logger}
}

// Pages returns one Page per PDF page in document order. A page whose text
// cannot be recovered is returned with empty text; only an unopenable file is
// an error. Under WithPageCache the document is read at most once.
func (r *PageReader) Pages(ctx context.Context, doc Document) ([]Page, error) {
	if !doc.Kind.HasPages() {
		return nil, common.UnsupportedError("page reader", string(doc.Kind))
	}
	if c := pageCacheFrom(ctx); c != nil {
		return c.load(ctx, doc.Path+"@"+doc.Hash, func() ([]Page, error) {
			return r.read(ctx, doc)
		})
	}
	return r.read(ctx, doc)
}

func (r *PageReader) read(ctx context.Context, doc Document) ([]Page, error) {
	log := common.LoggerFromContext(ctx, r.logger)

	texts, err := readPlainPages(doc.Path)
	if err != nil {
		// the embedded parser gave up; pdfcpu is more tolerant of broken xref tables
		n, cerr := api.PageCountFile(doc.Path)
		if cerr != nil || n <= 0 {
			log.Error("document.pdf.open_failed", "path", doc.Path, "error", err)
			return nil, common.CorruptError(doc.Path, err)
		}
		log.Warn("document.pdf.text_layer_unreadable", "path", doc.Path, "pages", n, "error", err)
		texts = make([]string, n)
	}

	pages := make([]Page, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		num := i + 1
		if strings.TrimSpace(text) == "" && r.fallback != nil {
			alt, ferr := r.fallback.PageText(ctx, doc.Path, num)
			if ferr != nil {
				log.Warn("document.pdf.page_fallback_failed", "page", num, "error", ferr)
			} else {
				text = alt
			}
		}
		pages[i] = Page{Number: num, Text: text}
	}
	log.Debug("document.pdf.pages_ok", "pages", len(pages))
	return pages, nil
}

// readPlainPages extracts the text layer of each page. The parser panics on
// some malformed streams, so panics are turned into errors.
func readPlainPages(path string) (texts []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf parser panic: %v", rec)
		}
	}()

	f, rd, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n := rd.NumPage()
	texts = make([]string, n)
	for i := 1; i <= n; i++ {
		texts[i-1] = pageText(rd, i)
	}
	return texts, nil
}

func pageText(rd *pdf.Reader, num int) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	p := rd.Page(num)
	if p.V.IsNull() {
		return ""
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}
