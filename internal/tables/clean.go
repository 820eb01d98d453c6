package tables

import "strings"

// DefaultEmptyThreshold is the emptiness ratio above which a row or column is dropped.
const DefaultEmptyThreshold = 0.5

// Cleaner turns raw grids into canonical tables. The zero value uses DefaultEmptyThreshold.
type Cleaner struct {
	Threshold float64
}

func (c Cleaner) threshold() float64 {
	if c.Threshold <= 0 || c.Threshold > 1 {
		return DefaultEmptyThreshold
	}
	return c.Threshold
}

// exceeds reports empty > threshold*total.
func (c Cleaner) exceeds(empty, total int) bool {
	return float64(empty) > c.threshold()*float64(total)
}

// Clean drops sparse columns, then sparse rows, relabels the surviving columns
// 0..N-1 and collapses whitespace in every cell. The drop passes repeat until
// nothing changes, so no surviving row or column is above the threshold and
// Clean(Clean(g)) equals Clean(g). Provenance is left for the caller to set.
func (c Cleaner) Clean(g Grid) CleanedTable {
	cols := make([]int, g.Width())
	for i := range cols {
		cols[i] = i
	}
	rows := make([]int, len(g))
	for i := range rows {
		rows[i] = i
	}

	for {
		keptCols := cols[:0:0]
		for _, ci := range cols {
			empty := 0
			for _, ri := range rows {
				if isEmpty(g, ri, ci) {
					empty++
				}
			}
			if !c.exceeds(empty, len(rows)) {
				keptCols = append(keptCols, ci)
			}
		}

		keptRows := rows[:0:0]
		for _, ri := range rows {
			empty := 0
			for _, ci := range keptCols {
				if isEmpty(g, ri, ci) {
					empty++
				}
			}
			if !c.exceeds(empty, len(keptCols)) {
				keptRows = append(keptRows, ri)
			}
		}

		changed := len(keptCols) != len(cols) || len(keptRows) != len(rows)
		cols, rows = keptCols, keptRows
		if !changed {
			break
		}
	}

	if len(cols) == 0 || len(rows) == 0 {
		return CleanedTable{}
	}

	out := CleanedTable{
		Columns: make([]int, len(cols)),
		Rows:    make([][]string, 0, len(rows)),
	}
	for i := range cols {
		out.Columns[i] = i
	}
	for _, ri := range rows {
		row := make([]string, len(cols))
		for j, ci := range cols {
			cell, _ := g.Cell(ri, ci)
			row[j] = CollapseSpace(cell)
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// Clean runs the default Cleaner.
func Clean(g Grid) CleanedTable {
	return Cleaner{}.Clean(g)
}

// CollapseSpace replaces whitespace runs with one space and trims the ends.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isEmpty(g Grid, r, c int) bool {
	cell, ok := g.Cell(r, c)
	return !ok || strings.TrimSpace(cell) == ""
}
