package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joseph-ayodele/docs-extractor/internal/batch"
	"github.com/joseph-ayodele/docs-extractor/internal/common"
	"github.com/joseph-ayodele/docs-extractor/internal/document"
	"github.com/joseph-ayodele/docs-extractor/internal/export"
	"github.com/joseph-ayodele/docs-extractor/internal/extract"
	"github.com/joseph-ayodele/docs-extractor/internal/findings"
	"github.com/joseph-ayodele/docs-extractor/internal/llm"
	"github.com/joseph-ayodele/docs-extractor/internal/llm/openai"
	"github.com/joseph-ayodele/docs-extractor/internal/ocr"
	"github.com/joseph-ayodele/docs-extractor/internal/pipeline"
	"github.com/joseph-ayodele/docs-extractor/internal/relate"
	"github.com/joseph-ayodele/docs-extractor/internal/tables"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		input      = flag.String("input", "./input", "directory of documents to process")
		output     = flag.String("output", "./output", "directory to write per-document results to")
		configPath = flag.String("config", "", "optional YAML config file")
		workers    = flag.Int("workers", 0, "documents processed in parallel (default: number of CPUs)")
		timeout    = flag.Duration("timeout", 0, "per-document timeout, e.g. 5m (default 10m)")
		logLevel   = flag.String("log-level", "", "debug, info, warn or error")
	)
	flag.Parse()

	var (
		cfg *common.Config
		err error
	)
	if *configPath != "" {
		cfg, err = common.LoadConfigFile(*configPath)
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg = common.LoadConfig()
	}

	// flags given on the command line win over env and file settings
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.Batch.InputDir = *input
		case "output":
			cfg.Batch.OutputDir = *output
		case "workers":
			cfg.Batch.Workers = *workers
		case "timeout":
			cfg.Batch.DocumentTimeout = *timeout
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch := buildOrchestrator(cfg, logger)

	start := time.Now()
	rep, err := orch.Run(ctx, cfg.Batch.InputDir, cfg.Batch.OutputDir)
	if err != nil {
		logger.Error("batch failed", "input", cfg.Batch.InputDir, "error", err)
		os.Exit(1)
	}

	fmt.Printf("Processed %d documents in %s: %d succeeded, %d partial, %d failed, %d skipped\n",
		rep.Total, time.Since(start).Round(time.Millisecond), rep.Succeeded, rep.Partial, rep.Failed, rep.Skipped)
}

func buildOrchestrator(cfg *common.Config, logger *slog.Logger) *batch.Orchestrator {
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
	pages := document.NewPageReader(tools, logger)

	// Setup NLP backend (graceful if no key)
	var nlp llm.NLP = llm.Heuristic{}
	if cfg.LLM.APIKey != "" {
		nlp = openai.NewClient(openai.Config{
			APIKey:        cfg.LLM.APIKey,
			BaseURL:       cfg.LLM.BaseURL,
			Model:         cfg.LLM.Model,
			Temperature:   cfg.LLM.Temperature,
			Timeout:       cfg.LLM.Timeout,
			MaxInputChars: cfg.LLM.MaxInputChars,
		}, logger)
		logger.Info("OpenAI client initialized", "model", cfg.LLM.Model)
	} else {
		logger.Warn("OpenAI API key not configured, using offline heuristics for summaries, language and entities")
	}

	classifier := tables.NewClassifier(
		tables.NewProfiles(cfg.Tables.Keywords()),
		pages,
		tables.NewStreamGridExtractor(tools, tables.StreamConfig{MinColumns: cfg.Tables.MinColumns, MinRows: cfg.Tables.MinRows}),
		tables.DocxReader{},
		tables.Cleaner{Threshold: cfg.Tables.EmptyThreshold},
		logger,
	)
	exporter := export.NewService(logger)

	proc := pipeline.NewProcessor(logger,
		extract.NewDocumentTextExtractor(pages, extract.DocconvConverter{}, nlp, nlp, logger),
		extract.NewImageExtractor(logger),
		extract.NewTableExtractor(classifier, cfg.Tables.Types(), exporter, logger),
		relate.NewMapper(logger),
		findings.NewAggregator(nlp, exporter, cfg.Batch.Workers, logger),
	)

	return batch.NewOrchestrator(proc, logger,
		batch.WithWorkers(cfg.Batch.Workers),
		batch.WithDocumentTimeout(cfg.Batch.DocumentTimeout),
		batch.WithSkipHidden(cfg.Batch.SkipHidden),
	)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
