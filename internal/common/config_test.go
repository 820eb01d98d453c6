package common

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/docs-extractor/constants"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DOCX_INPUT_DIR", "/data/in")
	t.Setenv("WORKERS", "3")
	t.Setenv("DOCUMENT_TIMEOUT", "45s")
	t.Setenv("EMPTY_THRESHOLD", "0.6")
	t.Setenv("ENABLE_OCR", "false")
	t.Setenv("OCR_TOOL_TIMEOUT", "30s")

	cfg := LoadConfig()
	if cfg.Batch.InputDir != "/data/in" || cfg.Batch.Workers != 3 || cfg.Batch.DocumentTimeout != 45*time.Second {
		t.Fatalf("batch = %+v", cfg.Batch)
	}
	if cfg.Tables.EmptyThreshold != 0.6 || cfg.OCR.EnableOCR || cfg.OCR.ToolTimeout != 30*time.Second {
		t.Fatalf("tables = %+v, ocr = %+v", cfg.Tables, cfg.OCR)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadConfigFileAddsProfiles(t *testing.T) {
	p := writeConfig(t, `
batch:
  workers: 2
  document_timeout: 90s
tables:
  statement_types: ["balance sheet", "SOCF", "soce"]
  profiles:
    SOCE: ["Changes in equity", "retained earnings"]
    SOCF: ["cash flows"]
`)
	cfg, err := LoadConfigFile(p)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.Batch.Workers != 2 || cfg.Batch.DocumentTimeout != 90*time.Second {
		t.Fatalf("batch = %+v", cfg.Batch)
	}
	wantTypes := []constants.StatementType{constants.SOFP, constants.SOCF, "SOCE"}
	if diff := cmp.Diff(wantTypes, cfg.Tables.Types()); diff != "" {
		t.Fatalf("types mismatch (-want +got):\n%s", diff)
	}
	kw := cfg.Tables.Keywords()
	if diff := cmp.Diff([]string{"cash flows"}, kw[constants.SOCF]); diff != "" {
		t.Fatalf("SOCF keywords mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(constants.DefaultKeywords[constants.SOFP], kw[constants.SOFP]); diff != "" {
		t.Fatalf("SOFP keywords mismatch (-want +got):\n%s", diff)
	}
	if len(kw["SOCE"]) != 2 {
		t.Fatalf("SOCE keywords = %v", kw["SOCE"])
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	p := writeConfig(t, `
log_level: loud
tables:
  empty_threshold: 1.5
  statement_types: ["SOFP", "SOCE"]
`)
	_, err := LoadConfigFile(p)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want invalid input", err)
	}
	for _, field := range []string{"tables.empty_threshold", "log_level", "tables.profiles.SOCE"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not mention %s", err, field)
		}
	}
}

func TestLoadConfigFileMissing(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
