package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"code.sajari.com/docconv/v2"

	"github.com/joseph-ayodele/docs-extractor/constants"
	"github.com/joseph-ayodele/docs-extractor/internal/common"
	"github.com/joseph-ayodele/docs-extractor/internal/document"
	"github.com/joseph-ayodele/docs-extractor/internal/llm"
	"github.com/joseph-ayodele/docs-extractor/internal/ocr"
	"github.com/joseph-ayodele/docs-extractor/internal/sink"
	"github.com/joseph-ayodele/docs-extractor/internal/tables"
)

// TextConverter turns a non-PDF document into plain text.
type TextConverter interface {
	ConvertText(ctx context.Context, doc document.Document) (string, error)
}

// DocconvConverter reads DOCX bodies and any other format docconv knows.
type DocconvConverter struct{}

func (DocconvConverter) ConvertText(ctx context.Context, doc document.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, err := os.Open(doc.Path)
	if err != nil {
		return "", common.CorruptError(doc.Path, err)
	}
	defer f.Close()

	if doc.Kind == constants.DOCX {
		text, _, err := docconv.ConvertDocx(f)
		if err != nil {
			return "", common.CorruptError(doc.Path, err)
		}
		return docxParagraphs(text), nil
	}

	resp, err := docconv.Convert(f, docconv.MimeTypeByExtension(doc.Path), false)
	if err != nil {
		return "", common.CollaboratorError("docconv", err)
	}
	if resp.Error != "" {
		return "", common.CollaboratorError("docconv", fmt.Errorf("%s", resp.Error))
	}
	return resp.Body, nil
}

// docxParagraphs puts a blank line between DOCX paragraphs, which docconv
// emits one per line, so that paragraph splitting works as for other kinds.
func docxParagraphs(text string) string {
	var paras []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			paras = append(paras, line)
		}
	}
	return strings.Join(paras, "\n\n")
}

// DocumentTextExtractor implements TextExtractor.
type DocumentTextExtractor struct {
	pages     tables.PageSource
	converter TextConverter
	language  llm.LanguageDetector
	ner       llm.EntityRecognizer
	logger    *slog.Logger
}

func NewDocumentTextExtractor(pages tables.PageSource, converter TextConverter, language llm.LanguageDetector, ner llm.EntityRecognizer, logger *slog.Logger) *DocumentTextExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if converter == nil {
		converter = DocconvConverter{}
	}
	if language == nil || ner == nil {
		h := llm.Heuristic{}
		if language == nil {
			language = h
		}
		if ner == nil {
			ner = h
		}
	}
	return &DocumentTextExtractor{pages: pages, converter: converter, language: language, ner: ner, logger: logger}
}

// Extract reads the document text, writes each non-empty blank-line separated
// paragraph to paragraphs/paragraph_<n>.txt (n is the 1-based position in the
// split, so numbering skips empty paragraphs), then runs language detection
// and entity recognition. An unreadable document yields empty text and a
// diagnostic; only a failed write is returned as an error.
func (e *DocumentTextExtractor) Extract(ctx context.Context, doc document.Document, outDir string) (TextResult, error) {
	start := time.Now()
	log := common.LoggerFromContext(ctx, e.logger)
	res := TextResult{Language: llm.UnknownLanguage}

	text, err := e.read(ctx, doc, &res)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		log.Warn("extract.text.read_failed", "kind", doc.Kind, "error_kind", common.Classify(err), "error", err)
		res.Diagnostics = append(res.Diagnostics, NewDiagnostic("text", err))
	}
	res.Text = ocr.Normalize(text)
	if res.Text == "" {
		log.Warn("extract.text.empty", "kind", doc.Kind)
	}

	dir := filepath.Join(outDir, constants.ParagraphsDir)
	if err := sink.EnsureDir(dir); err != nil {
		return res, err
	}
	for i, p := range strings.Split(res.Text, "\n\n") {
		if strings.TrimSpace(p) == "" {
			continue
		}
		name := fmt.Sprintf("paragraph_%d.txt", i+1)
		if err := sink.WriteFile(filepath.Join(dir, name), []byte(p)); err != nil {
			return res, err
		}
		res.Paragraphs = append(res.Paragraphs, name)
	}

	if res.Text != "" {
		res.Language = llm.CanonicalLanguage(e.language.DetectLanguage(ctx, res.Text))
		res.Entities = e.ner.Entities(ctx, res.Text)
	}
	res.Duration = time.Since(start)

	log.Info("extract.text.ok",
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"paragraphs", len(res.Paragraphs),
		"language", res.Language,
		"entities", len(res.Entities),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (e *DocumentTextExtractor) read(ctx context.Context, doc document.Document, res *TextResult) (string, error) {
	switch doc.Kind {
	case constants.PDF:
		res.Method = "pdf-text"
		pages, err := e.pages.Pages(ctx, doc)
		if err != nil {
			return "", err
		}
		res.Pages = len(pages)
		parts := make([]string, 0, len(pages))
		for _, p := range pages {
			if strings.TrimSpace(p.Text) == "" {
				common.LoggerFromContext(ctx, e.logger).Warn("extract.text.page_empty", "page", p.Number)
				continue
			}
			parts = append(parts, p.Text)
		}
		return strings.Join(parts, "\n\n"), nil
	case constants.DOCX:
		res.Method = "docx"
		return e.converter.ConvertText(ctx, doc)
	case constants.TEXT:
		res.Method = "generic"
		return e.converter.ConvertText(ctx, doc)
	default:
		return "", common.UnsupportedError("text extractor", string(doc.Kind))
	}
}
