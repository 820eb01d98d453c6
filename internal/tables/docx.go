package tables

import (
	"context"

	"github.com/joseph-ayodele/docs-extractor/internal/common"
	"github.com/joseph-ayodele/docs-extractor/internal/document"
)

// DocxReader reads native .docx tables from word/document.xml.
type DocxReader struct{}

func (DocxReader) DocxTables(ctx context.Context, doc document.Document) ([]Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := document.ReadDocxTables(doc.Path)
	if err != nil {
		return nil, common.CorruptError(doc.Path, err)
	}
	out := make([]Grid, len(raw))
	for i, t := range raw {
		out[i] = t
	}
	return out, nil
}
