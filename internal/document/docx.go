package document

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

const docxBody = "word/document.xml"

// ReadDocxTables returns the top-level tables of a .docx in document order.
// Each cell holds its paragraphs joined by newlines. Horizontally merged cells
// repeat their text across the spanned grid columns and vertically merged
// cells repeat the text of the cell that starts the merge. Content of nested
// tables is ignored.
func ReadDocxTables(docxPath string) ([][][]string, error) {
	r, err := zip.OpenReader(docxPath)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	var body *zip.File
	for _, f := range r.File {
		if f.Name == docxBody {
			body = f
			break
		}
	}
	if body == nil {
		return nil, fmt.Errorf("%s not found in archive", docxBody)
	}

	rc, err := body.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", docxBody, err)
	}
	defer rc.Close()
	return parseDocxTables(rc)
}

type cellState struct {
	paras   []string
	para    strings.Builder
	span    int
	vMerge  string // "", "restart" or "continue"
	hasPara bool
}

func parseDocxTables(r io.Reader) ([][][]string, error) {
	dec := xml.NewDecoder(r)

	var (
		tables [][][]string
		grid   [][]string
		row    []string
		merges []bool // per grid column of the current row: continues a vertical merge
		cell   *cellState
		depth  int
		inText bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", docxBody, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				depth++
				if depth == 1 {
					grid = nil
				}
			}
			if depth != 1 {
				continue
			}
			switch t.Name.Local {
			case "tr":
				row, merges = nil, nil
			case "tc":
				cell = &cellState{span: 1}
			case "gridSpan":
				if cell != nil {
					if n, err := strconv.Atoi(attr(t, "val")); err == nil && n > 1 {
						cell.span = n
					}
				}
			case "vMerge":
				if cell != nil {
					cell.vMerge = attr(t, "val")
					if cell.vMerge == "" {
						cell.vMerge = "continue"
					}
				}
			case "p":
				if cell != nil {
					cell.para.Reset()
					cell.hasPara = true
				}
			case "t":
				inText = cell != nil
			case "tab":
				if cell != nil {
					cell.para.WriteByte('\t')
				}
			case "br", "cr":
				if cell != nil {
					cell.para.WriteByte('\n')
				}
			}

		case xml.CharData:
			if depth == 1 && inText && cell != nil {
				cell.para.Write(t)
			}

		case xml.EndElement:
			if t.Name.Local == "tbl" {
				if depth == 1 && len(grid) > 0 {
					tables = append(tables, fillVerticalMerges(grid))
				}
				depth--
				continue
			}
			if depth != 1 {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if cell != nil && cell.hasPara {
					cell.paras = append(cell.paras, cell.para.String())
					cell.hasPara = false
				}
			case "tc":
				if cell != nil {
					text := strings.TrimSpace(strings.Join(cell.paras, "\n"))
					for range cell.span {
						row = append(row, text)
						merges = append(merges, cell.vMerge == "continue")
					}
					cell = nil
				}
			case "tr":
				grid = append(grid, markMerged(row, merges))
			}
		}
	}
	return tables, nil
}

// continued marks a cell that copies its value from the row above.
const continued = "\x00"

func markMerged(row []string, merges []bool) []string {
	for i, m := range merges {
		if m {
			row[i] = continued
		}
	}
	return row
}

func fillVerticalMerges(grid [][]string) [][]string {
	for r, row := range grid {
		for c, v := range row {
			if v != continued {
				continue
			}
			row[c] = ""
			if r > 0 && c < len(grid[r-1]) {
				row[c] = grid[r-1][c]
			}
		}
	}
	return grid
}

func attr(t xml.StartElement, local string) string {
	for _, a := range t.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// MediaFile is an embedded image of a .docx, in archive order.
type MediaFile struct {
	Name string // archive base name, e.g. image1.png
	Ext  string // normalized extension, no dot
	file *zip.File
}

// Open returns a reader over the media content.
func (m MediaFile) Open() (io.ReadCloser, error) {
	return m.file.Open()
}

// DocxMedia lists the word/media entries of an opened .docx archive. The
// caller keeps r open while reading the returned files.
func DocxMedia(r *zip.Reader) []MediaFile {
	var out []MediaFile
	for _, f := range r.File {
		if !strings.HasPrefix(f.Name, "word/media/") || f.FileInfo().IsDir() {
			continue
		}
		base := path.Base(f.Name)
		out = append(out, MediaFile{
			Name: base,
			Ext:  strings.ToLower(strings.TrimPrefix(path.Ext(base), ".")),
			file: f,
		})
	}
	return out
}
