package tables

import (
	"context"
	"strings"
	"unicode"

	"github.com/joseph-ayodele/docs-extractor/internal/common"
	"github.com/joseph-ayodele/docs-extractor/internal/document"
)

// LayoutSource renders one page as layout-preserving plain text.
type LayoutSource interface {
	LayoutText(ctx context.Context, path string, page int) (string, error)
}

// StreamConfig tunes how whitespace-aligned text is cut into tables.
type StreamConfig struct {
	MinColumns int // a line with fewer cells does not start or extend a table, default 2
	MinRows    int // tables with fewer rows are dropped, default 2
	MinGap     int // spaces that separate two cells on a line, default 2
	MaxLineGap int // non-table lines tolerated inside a table, default 2
}

func (c StreamConfig) withDefaults() StreamConfig {
	if c.MinColumns < 2 {
		c.MinColumns = 2
	}
	if c.MinRows <= 0 {
		c.MinRows = 2
	}
	if c.MinGap <= 0 {
		c.MinGap = 2
	}
	if c.MaxLineGap < 0 {
		c.MaxLineGap = 0
	} else if c.MaxLineGap == 0 {
		c.MaxLineGap = 2
	}
	return c
}

// StreamGridExtractor detects tables in layout text by the whitespace between
// aligned columns, which is how most statements without ruling lines are set.
type StreamGridExtractor struct {
	src LayoutSource
	cfg StreamConfig
}

func NewStreamGridExtractor(src LayoutSource, cfg StreamConfig) *StreamGridExtractor {
	return &StreamGridExtractor{src: src, cfg: cfg.withDefaults()}
}

func (s *StreamGridExtractor) ExtractGrids(ctx context.Context, doc document.Document, page int) ([]Grid, error) {
	text, err := s.src.LayoutText(ctx, doc.Path, page)
	if err != nil {
		return nil, common.CollaboratorError("layout text", err)
	}
	return GridsFromLayout(text, s.cfg), nil
}

type segment struct {
	start, end int // rune offsets, end exclusive
	text       string
}

type span struct{ start, end int }

// GridsFromLayout cuts layout text into grids. A table is a run of lines with
// at least MinColumns cells; up to MaxLineGap lines with fewer cells (section
// headings, blank lines) may sit inside it. Column boundaries come from the
// character positions that are blank on every multi-cell line of the table.
func GridsFromLayout(text string, cfg StreamConfig) []Grid {
	cfg = cfg.withDefaults()
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(strings.Trim(text, "\f"), "\n")

	segs := make([][]segment, len(lines))
	for i, ln := range lines {
		segs[i] = splitSegments(ln, cfg.MinGap)
	}

	var (
		grids   []Grid
		block   []int
		pending []int
		gap     int
	)
	flush := func() {
		if g := buildGrid(segs, block, cfg); g != nil {
			grids = append(grids, g)
		}
		block, pending, gap = nil, nil, 0
	}

	for i, ss := range segs {
		if len(ss) >= cfg.MinColumns {
			block = append(block, pending...)
			block = append(block, i)
			pending, gap = nil, 0
			continue
		}
		if len(block) == 0 {
			continue
		}
		gap++
		if gap > cfg.MaxLineGap {
			flush()
			continue
		}
		if len(ss) > 0 {
			pending = append(pending, i)
		}
	}
	if len(block) > 0 {
		flush()
	}
	return grids
}

func buildGrid(segs [][]segment, block []int, cfg StreamConfig) Grid {
	if len(block) < cfg.MinRows {
		return nil
	}
	spans := columnSpans(segs, block, cfg.MinColumns)
	if len(spans) < cfg.MinColumns {
		return nil
	}
	g := make(Grid, 0, len(block))
	for _, li := range block {
		row := make([]string, len(spans))
		for _, s := range segs[li] {
			c := nearestSpan(spans, s)
			if row[c] != "" {
				row[c] += " "
			}
			row[c] += s.text
		}
		g = append(g, row)
	}
	return g
}

// columnSpans returns the maximal runs of positions covered by a cell on at
// least one multi-cell line of the block.
func columnSpans(segs [][]segment, block []int, minCols int) []span {
	width := 0
	for _, li := range block {
		if n := len(segs[li]); n >= minCols {
			width = max(width, segs[li][n-1].end)
		}
	}
	covered := make([]bool, width)
	for _, li := range block {
		if len(segs[li]) < minCols {
			continue
		}
		for _, s := range segs[li] {
			for x := s.start; x < s.end; x++ {
				covered[x] = true
			}
		}
	}

	var spans []span
	start := -1
	for x, c := range covered {
		switch {
		case c && start < 0:
			start = x
		case !c && start >= 0:
			spans = append(spans, span{start, x})
			start = -1
		}
	}
	if start >= 0 {
		spans = append(spans, span{start, width})
	}
	return spans
}

// nearestSpan picks the span with the largest overlap, or the closest one
// when the segment overlaps none.
func nearestSpan(spans []span, s segment) int {
	best, bestOverlap, bestDist := 0, 0, -1
	for i, sp := range spans {
		overlap := min(sp.end, s.end) - max(sp.start, s.start)
		if overlap > bestOverlap {
			best, bestOverlap = i, overlap
			continue
		}
		if bestOverlap > 0 {
			continue
		}
		dist := max(sp.start-s.end, s.start-sp.end, 0)
		if bestDist < 0 || dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}

// splitSegments splits a line into cells separated by at least minGap spaces.
func splitSegments(line string, minGap int) []segment {
	rs := []rune(strings.ReplaceAll(line, "\t", "    "))
	var out []segment
	start, spaces := -1, 0
	for i, r := range rs {
		if unicode.IsSpace(r) {
			spaces++
			continue
		}
		switch {
		case start < 0:
			start = i
		case spaces >= minGap:
			end := i - spaces
			out = append(out, segment{start: start, end: end, text: string(rs[start:end])})
			start = i
		}
		spaces = 0
	}
	if start >= 0 {
		end := len(rs) - spaces
		out = append(out, segment{start: start, end: end, text: string(rs[start:end])})
	}
	return out
}
