package tables

import (
	"strconv"
	"strings"
)

// Grid is a raw table as produced by a grid collaborator. Rows may be ragged;
// a cell past the end of its row is missing.
type Grid [][]string

// Width returns the length of the longest row.
func (g Grid) Width() int {
	w := 0
	for _, row := range g {
		w = max(w, len(row))
	}
	return w
}

// Cell returns the cell at (r, c) and whether it exists.
func (g Grid) Cell(r, c int) (string, bool) {
	if r < 0 || r >= len(g) || c < 0 || c >= len(g[r]) {
		return "", false
	}
	return g[r][c], true
}

// Source identifies where a table was found.
type Source string

const (
	SourcePDFPage   Source = "pdf_page"
	SourceDocxTable Source = "docx_table"
)

// Provenance records where a candidate came from.
type Provenance struct {
	Source Source `json:"source"`
	Page   int    `json:"page,omitempty"`  // 1-indexed PDF page, 0 for DOCX
	Index  int    `json:"index"`           // 1-based within the page (PDF) or document (DOCX)
	Score  int    `json:"score,omitempty"` // page match count, 0 for DOCX
}

// Candidate is a raw grid before cleaning.
type Candidate struct {
	Grid       Grid
	Provenance Provenance
}

// CleanedTable is a candidate after cleaning. Columns holds the dense labels
// 0..N-1 and every row has exactly len(Columns) cells.
type CleanedTable struct {
	Provenance Provenance
	Columns    []int
	Rows       [][]string
}

// Empty reports a zero-row or zero-column table.
func (t CleanedTable) Empty() bool {
	return len(t.Rows) == 0 || len(t.Columns) == 0
}

// Header renders the column labels as strings.
func (t CleanedTable) Header() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = strconv.Itoa(c)
	}
	return out
}

// Records returns the header row followed by the data rows, ready for CSV.
func (t CleanedTable) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.Header())
	return append(out, t.Rows...)
}

// Text renders the rows space separated, one line per row, without the header.
func (t CleanedTable) Text() string {
	var b strings.Builder
	for i, row := range t.Rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Join(row, " "))
	}
	return b.String()
}
