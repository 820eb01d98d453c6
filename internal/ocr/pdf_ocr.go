package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/docs-extractor/internal/common"
)

// PageText returns the text layer of one page via pdftotext. When the page has
// no text and OCR is enabled, the page is rasterized and OCR'd instead.
func (e *Extractor) PageText(ctx context.Context, path string, page int) (string, error) {
	text, err := e.pdfToText(ctx, path, page, false)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) != "" || !e.cfg.EnableOCR {
		return text, nil
	}
	return e.OCRPage(ctx, path, page)
}

// LayoutText returns one page rendered by pdftotext -layout, which keeps the
// horizontal position of text so column structure survives as runs of spaces.
func (e *Extractor) LayoutText(ctx context.Context, path string, page int) (string, error) {
	return e.pdfToText(ctx, path, page, true)
}

func (e *Extractor) pdfToText(ctx context.Context, path string, page int, layout bool) (string, error) {
	p := strconv.Itoa(page)
	// pdftotext [-layout] -f N -l N -enc UTF-8 -eol unix <path> -
	args := []string{"-f", p, "-l", p, "-enc", "UTF-8", "-eol", "unix"}
	if layout {
		args = append([]string{"-layout"}, args...)
	}
	args = append(args, path, "-")
	out, _, err := e.runner.Run(ctx, e.cfg.Pdftotext, e.logger, args...)
	if err != nil {
		return "", common.CollaboratorError("pdftotext", err)
	}
	// a form-feed \f terminates every page
	return strings.TrimRight(string(out), "\f\n"), nil
}

// OCRPage rasterizes one page with pdftoppm and runs tesseract over it.
func (e *Extractor) OCRPage(ctx context.Context, path string, page int) (string, error) {
	tmpDir, err := os.MkdirTemp("", "dx-pp-*")
	if err != nil {
		return "", err
	}
	defer func(dir string) {
		if err := os.RemoveAll(dir); err != nil {
			e.logger.Warn("ocr.tmpdir.cleanup_failed", "dir", dir, "error", err)
		}
	}(tmpDir)

	p := strconv.Itoa(page)
	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -f N -l N -r 300 -png <in.pdf> <tmp/page>
	if _, _, err := e.runner.Run(ctx, e.cfg.Pdftoppm, e.logger, "-f", p, "-l", p, "-r", strconv.Itoa(e.cfg.DPI), "-png", path, prefix); err != nil {
		return "", common.CollaboratorError("pdftoppm", err)
	}

	// pdftoppm zero-pads the page suffix to the page count width
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return "", common.CollaboratorError("pdftoppm", fmt.Errorf("no image rendered for page %d", page))
	}

	txt, err := e.tesseractOCR(ctx, matches[0])
	if err != nil {
		return "", err
	}
	txt = Normalize(txt)
	e.logger.Debug("ocr.page.ok",
		"path", path,
		"page", page,
		"chars", len(txt),
		"confidence", heuristicConfidence(txt),
	)
	return txt, nil
}
