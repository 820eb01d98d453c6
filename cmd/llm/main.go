package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joseph-ayodele/docs-extractor/internal/common"
	"github.com/joseph-ayodele/docs-extractor/internal/llm"
	"github.com/joseph-ayodele/docs-extractor/internal/llm/openai"
	"github.com/joseph-ayodele/docs-extractor/internal/ocr"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		logger.Error("usage: llm <text-file> [times]")
		os.Exit(2)
	}
	times := 3
	if len(os.Args) >= 3 {
		if n, err := strconv.Atoi(os.Args[2]); err == nil && n > 0 {
			times = n
		}
	}

	raw, err := os.ReadFile(os.Args[1])
	if err != nil {
		logger.Error("read input", "path", os.Args[1], "error", err)
		os.Exit(1)
	}
	text := ocr.Normalize(string(raw))

	cfg := common.LoadConfig()
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
	} else {
		logger.Warn("OPENAI_API_KEY not set, using offline heuristics")
	}

	// Same text N times, to eyeball how stable the backend's answers are.
	for i := 1; i <= times; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		start := time.Now()

		summary := nlp.Summarize(ctx, text, llm.TaskSummarize)
		lang := nlp.DetectLanguage(ctx, text)
		entities := nlp.Entities(ctx, text)
		cancel()

		logger.Info("nlp.run.ok",
			"iter", i,
			"language", llm.CanonicalLanguage(lang),
			"summary", summary,
			"entities", entities,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		if i < times {
			time.Sleep(750 * time.Millisecond)
		}
	}
}
