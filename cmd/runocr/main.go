// Command runocr inspects one document: the text of a page, its layout grids,
// or the tables the classifier keeps for a statement type.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joseph-ayodele/docs-extractor/constants"
	"github.com/joseph-ayodele/docs-extractor/internal/common"
	"github.com/joseph-ayodele/docs-extractor/internal/document"
	"github.com/joseph-ayodele/docs-extractor/internal/ocr"
	"github.com/joseph-ayodele/docs-extractor/internal/tables"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var (
		page     = flag.Int("page", 0, "print the text of this page (PDF only)")
		layout   = flag.Bool("layout", false, "with -page, print the grids found on the page instead of its text")
		classify = flag.String("classify", "", "print the tables kept for a statement type, e.g. SOFP")
	)
	flag.Parse()
	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "runocr [-page N [-layout]] [-classify TYPE] <document>")
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	doc, err := document.Open(flag.Arg(0))
	if err != nil {
		logger.Error("open document", "path", flag.Arg(0), "error", err)
		os.Exit(1)
	}

	tools := ocr.NewExtractor(ocr.Config{
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
		DPI:           cfg.OCR.DPI,
		PSM:           6,
		EnableOCR:     cfg.OCR.EnableOCR,
		ToolTimeout:   cfg.OCR.ToolTimeout,
	}, logger)
	stream := tables.NewStreamGridExtractor(tools, tables.StreamConfig{MinColumns: cfg.Tables.MinColumns, MinRows: cfg.Tables.MinRows})

	start := time.Now()
	switch {
	case *page > 0 && *layout:
		grids, err := stream.ExtractGrids(ctx, doc, *page)
		if err != nil {
			logger.Error("layout grids failed", "page", *page, "error", err)
			os.Exit(1)
		}
		for i, g := range grids {
			fmt.Printf("--- grid %d (%d rows)\n", i+1, len(g))
			for _, row := range g {
				fmt.Println(strings.Join(row, " | "))
			}
		}
	case *page > 0:
		text, err := tools.PageText(ctx, doc.Path, *page)
		if err != nil {
			logger.Error("page text failed", "page", *page, "error", err)
			os.Exit(1)
		}
		fmt.Println(text)
	case *classify != "":
		st, _ := constants.Canonicalize(*classify)
		c := tables.NewClassifier(
			tables.NewProfiles(cfg.Tables.Keywords()),
			document.NewPageReader(tools, logger),
			stream,
			tables.DocxReader{},
			tables.Cleaner{Threshold: cfg.Tables.EmptyThreshold},
			logger,
		)
		res := c.Classify(ctx, doc, st)
		if res.Diagnostic != nil {
			logger.Warn("classification degraded", "error_kind", common.Classify(res.Diagnostic), "error", res.Diagnostic)
		}
		for _, ps := range res.Ranked {
			fmt.Printf("page %d: %d keyword(s)\n", ps.Page, ps.Matches)
		}
		for i, t := range res.Tables {
			fmt.Printf("--- %s table %d (page %d, %dx%d)\n", st, i+1, t.Provenance.Page, len(t.Rows), len(t.Columns))
			fmt.Println(t.Text())
		}
	default:
		logger.Error("nothing to do: pass -page or -classify")
		os.Exit(2)
	}

	logger.Info("runocr done", "kind", doc.Kind, "duration_ms", time.Since(start).Milliseconds())
}
