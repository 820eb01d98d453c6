package tables

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCleanDropsSparseColumnsThenRows(t *testing.T) {
	g := Grid{
		{"Assets", "2024", "2023", ""},
		{"Cash", " 100 ", "90", ""},
		{"", "", "  ", ""},
		{"Total   assets", "300", "", "\t"},
	}
	got := Clean(g)
	want := CleanedTable{
		Columns: []int{0, 1, 2},
		Rows: [][]string{
			{"Assets", "2024", "2023"},
			{"Cash", "100", "90"},
			{"Total assets", "300", ""},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Clean mismatch (-want +got):\n%s", diff)
	}
}

func TestCleanTreatsMissingCellsAsEmpty(t *testing.T) {
	g := Grid{
		{"a", "b", "c"},
		{"d"},
		{"e", "f"},
	}
	got := Clean(g)
	want := [][]string{{"a", "b"}, {"d", ""}, {"e", "f"}}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1}, got.Columns); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
}

func TestCleanRepeatsUntilStable(t *testing.T) {
	// dropping the two sparse rows leaves column 2 fully empty
	g := Grid{
		{"x", "x", ""},
		{"x", "x", ""},
		{"", "", "x"},
		{"", "", "x"},
	}
	got := Clean(g)
	want := [][]string{{"x", "x"}, {"x", "x"}}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	assertWithinThreshold(t, got, DefaultEmptyThreshold)
}

func TestCleanEmptyResults(t *testing.T) {
	cases := map[string]Grid{
		"nil":        nil,
		"no columns": {{}, {}},
		"all blank":  {{" ", ""}, {"", "\n"}},
	}
	for name, g := range cases {
		t.Run(name, func(t *testing.T) {
			if got := Clean(g); !got.Empty() {
				t.Fatalf("expected empty table, got %+v", got)
			}
		})
	}
}

func TestCleanThresholdOneKeepsEverything(t *testing.T) {
	g := Grid{{"a", ""}, {"", ""}}
	got := Cleaner{Threshold: 1}.Clean(g)
	if len(got.Rows) != 2 || len(got.Columns) != 2 {
		t.Fatalf("got %dx%d, want 2x2", len(got.Rows), len(got.Columns))
	}
}

func TestCleanIdempotentAndWithinThreshold(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	words := []string{"", " ", "assets", "  total  equity ", "1,200", "\t", "(300)"}
	for _, threshold := range []float64{0.25, 0.5, 0.75} {
		c := Cleaner{Threshold: threshold}
		for i := 0; i < 200; i++ {
			g := make(Grid, rng.IntN(8))
			for r := range g {
				g[r] = make([]string, rng.IntN(7))
				for k := range g[r] {
					g[r][k] = words[rng.IntN(len(words))]
				}
			}

			once := c.Clean(g)
			twice := c.Clean(Grid(once.Rows))
			if diff := cmp.Diff(once, twice); diff != "" {
				t.Fatalf("threshold %v grid %q: not idempotent (-once +twice):\n%s", threshold, g, diff)
			}
			assertWithinThreshold(t, once, threshold)
		}
	}
}

func assertWithinThreshold(t *testing.T, ct CleanedTable, threshold float64) {
	t.Helper()
	if ct.Empty() {
		return
	}
	for i, c := range ct.Columns {
		if c != i {
			t.Fatalf("columns not dense: %v", ct.Columns)
		}
	}
	colEmpty := make([]int, len(ct.Columns))
	for _, row := range ct.Rows {
		if len(row) != len(ct.Columns) {
			t.Fatalf("row width %d, want %d", len(row), len(ct.Columns))
		}
		empty := 0
		for j, cell := range row {
			if cell != CollapseSpace(cell) {
				t.Fatalf("cell %q not collapsed", cell)
			}
			if strings.TrimSpace(cell) == "" {
				empty++
				colEmpty[j]++
			}
		}
		if float64(empty) > threshold*float64(len(ct.Columns)) {
			t.Fatalf("row %q above threshold %v", row, threshold)
		}
	}
	for j, n := range colEmpty {
		if float64(n) > threshold*float64(len(ct.Rows)) {
			t.Fatalf("column %d above threshold %v", j, threshold)
		}
	}
}
