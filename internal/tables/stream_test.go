package tables

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/docs-extractor/internal/common"
)

func statementLine(label, cur, prev string) string {
	return fmt.Sprintf("%-38s%7s%12s", label, cur, prev)
}

func layoutPage() string {
	lines := []string{
		"                 Statement of Financial Position",
		statementLine("", "2024", "2023"),
		"Non-current assets",
		statementLine("Property, plant and equipment", "1,200", "1,100"),
		statementLine("Intangible assets", "300", "250"),
		"",
		"Current assets",
		statementLine("Cash", "150", "90"),
		statementLine("Total assets", "1,650", "1,440"),
		"",
		"",
		"",
		fmt.Sprintf("%-10s%8s", "Revenue", "500"),
		fmt.Sprintf("%-10s%8s", "Expenses", "200"),
		"The notes form part of these statements.",
	}
	return strings.Join(lines, "\n") + "\n\f"
}

func TestGridsFromLayout(t *testing.T) {
	got := GridsFromLayout(layoutPage(), StreamConfig{})
	want := []Grid{
		{
			{"", "2024", "2023"},
			{"Non-current assets", "", ""},
			{"Property, plant and equipment", "1,200", "1,100"},
			{"Intangible assets", "300", "250"},
			{"Current assets", "", ""},
			{"Cash", "150", "90"},
			{"Total assets", "1,650", "1,440"},
		},
		{
			{"Revenue", "500"},
			{"Expenses", "200"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("grids mismatch (-want +got):\n%s", diff)
	}
}

func TestGridsFromLayoutDropsShortTables(t *testing.T) {
	text := "Title\n" + statementLine("Only row", "1", "2") + "\nfooter"
	if got := GridsFromLayout(text, StreamConfig{}); len(got) != 0 {
		t.Fatalf("expected no grids, got %q", got)
	}
}

func TestSplitSegments(t *testing.T) {
	got := splitSegments("  Total assets   1,650\t(90)", 2)
	var texts []string
	for _, s := range got {
		texts = append(texts, s.text)
	}
	if diff := cmp.Diff([]string{"Total assets", "1,650", "(90)"}, texts); diff != "" {
		t.Fatalf("segments mismatch (-want +got):\n%s", diff)
	}
	if got[0].start != 2 || got[0].end != 14 {
		t.Fatalf("first segment at [%d,%d)", got[0].start, got[0].end)
	}
}

type fakeLayout struct {
	text string
	err  error
}

func (f fakeLayout) LayoutText(context.Context, string, int) (string, error) {
	return f.text, f.err
}

func TestStreamGridExtractor(t *testing.T) {
	s := NewStreamGridExtractor(fakeLayout{text: layoutPage()}, StreamConfig{})
	grids, err := s.ExtractGrids(context.Background(), pdfDoc, 4)
	if err != nil {
		t.Fatalf("ExtractGrids: %v", err)
	}
	if len(grids) != 2 {
		t.Fatalf("got %d grids", len(grids))
	}

	s = NewStreamGridExtractor(fakeLayout{err: errors.New("exit status 1")}, StreamConfig{})
	if _, err := s.ExtractGrids(context.Background(), pdfDoc, 4); !errors.Is(err, common.ErrCollaborator) {
		t.Fatalf("err = %v, want collaborator failure", err)
	}
}

func TestStreamThenCleanDropsSectionHeadings(t *testing.T) {
	grids := GridsFromLayout(layoutPage(), StreamConfig{})
	got := Clean(grids[0])
	for _, row := range got.Rows {
		if row[0] == "Non-current assets" || row[0] == "Current assets" {
			t.Fatalf("heading row %q survived cleaning", row)
		}
	}
	if len(got.Rows) != 5 {
		t.Fatalf("rows = %d, want 5", len(got.Rows))
	}
}
