package constants

import "strings"

// DocumentKind is the closed set of input kinds the pipeline understands.
type DocumentKind string

const (
	PDF         DocumentKind = "PDF"
	DOCX        DocumentKind = "DOCX"
	TEXT        DocumentKind = "TEXT" // anything else; routed to the generic text collaborator
	UNSUPPORTED DocumentKind = "UNSUPPORTED"
)

// TextExtensions holds the extensions the generic text collaborator is known to read.
var TextExtensions = map[string]struct{}{
	"txt":   {},
	"md":    {},
	"rtf":   {},
	"doc":   {},
	"odt":   {},
	"html":  {},
	"htm":   {},
	"xml":   {},
	"pages": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToKind resolves a (normalized or raw) extension to a DocumentKind.
func MapExtToKind(ext string) DocumentKind {
	ext = NormalizeExt(ext)
	switch ext {
	case "pdf":
		return PDF
	case "docx":
		return DOCX
	}
	if _, ok := TextExtensions[ext]; ok {
		return TEXT
	}
	return UNSUPPORTED
}

// HasPages reports whether documents of this kind expose a page sequence.
func (k DocumentKind) HasPages() bool { return k == PDF }

// SupportsArtifacts reports whether image and table extraction apply to the kind.
func (k DocumentKind) SupportsArtifacts() bool { return k == PDF || k == DOCX }
