package common

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func decodeRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	return rec
}

func TestLoggerFromContextDecoratesFallback(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := WithDocument(WithRunID(context.Background(), "run-7"), "annual_report")

	LoggerFromContext(ctx, base).Info("extract.text.ok")

	rec := decodeRecord(t, &buf)
	if rec["run_id"] != "run-7" || rec["document"] != "annual_report" {
		t.Fatalf("record = %v", rec)
	}
}

func TestLoggerFromContextPrefersStoredLogger(t *testing.T) {
	var stored, fallback bytes.Buffer
	worker := slog.New(slog.NewJSONHandler(&stored, nil)).With("worker_id", 2)
	ctx := WithLogger(WithRunID(context.Background(), "run-7"), worker)

	LoggerFromContext(ctx, slog.New(slog.NewJSONHandler(&fallback, nil))).Info("pipeline.document.ok")

	if fallback.Len() != 0 {
		t.Fatalf("fallback logger used: %s", fallback.String())
	}
	rec := decodeRecord(t, &stored)
	if rec["worker_id"] != float64(2) || rec["msg"] != "pipeline.document.ok" {
		t.Fatalf("record = %v", rec)
	}
}
