package export

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docs-extractor/internal/common"
)

// Sheet is one worksheet: a header row followed by data rows.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]string
	// Widths sets column widths by column letter range, e.g. "A:A" -> 14.
	Widths map[string]float64
}

// Service renders worksheets into XLSX bytes.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// maxSheetName is Excel's limit on worksheet name length.
const maxSheetName = 31

// WorkbookXLSX returns a workbook with one worksheet per sheet, in order. Sheet
// names are made valid and unique; cells are written as text.
func (s *Service) WorkbookXLSX(ctx context.Context, sheets []Sheet) ([]byte, error) {
	start := time.Now()
	log := common.LoggerFromContext(ctx, s.logger)

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn("export.xlsx.close_failed", "error", err)
		}
	}()

	used := make(map[string]struct{}, len(sheets))
	rows := 0
	for i, sh := range sheets {
		name := uniqueSheetName(sh.Name, i+1, used)
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("new sheet %q: %w", name, err)
		}
		if i == 0 {
			idx, _ := f.GetSheetIndex(name)
			f.SetActiveSheet(idx)
		}

		if err := writeRow(f, name, 1, sh.Headers); err != nil {
			return nil, err
		}
		for r, row := range sh.Rows {
			if err := writeRow(f, name, r+2, row); err != nil {
				return nil, err
			}
		}
		for rng, w := range sh.Widths {
			from, to, _ := strings.Cut(rng, ":")
			if to == "" {
				to = from
			}
			_ = f.SetColWidth(name, from, to, w)
		}
		rows += len(sh.Rows)
	}

	// excelize starts every workbook with Sheet1
	if _, ok := used["sheet1"]; !ok && len(sheets) > 0 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("delete default sheet: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	log.Info("export.xlsx.ok",
		"sheets", len(sheets),
		"rows", rows,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, cells []string) error {
	if len(cells) == 0 {
		return nil
	}
	vals := make([]any, len(cells))
	for i, c := range cells {
		vals[i] = c
	}
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// uniqueSheetName strips characters Excel rejects, bounds the length and
// appends a counter on collision.
func uniqueSheetName(name string, pos int, used map[string]struct{}) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	name = strings.Trim(name, "'")
	if name == "" {
		name = "Sheet" + strconv.Itoa(pos)
	}
	name = truncate(name, maxSheetName)

	candidate := name
	for n := 2; ; n++ {
		if _, taken := used[strings.ToLower(candidate)]; !taken {
			break
		}
		suffix := "_" + strconv.Itoa(n)
		candidate = truncate(name, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = struct{}{}
	return candidate
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
