package document

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/docs-extractor/constants"
	"github.com/joseph-ayodele/docs-extractor/internal/common"
)

// Document is an input file resolved once: its kind is fixed at Open and
// threaded through every stage.
type Document struct {
	Path string
	Name string // base name without extension
	Ext  string // normalized extension, no dot
	Kind constants.DocumentKind
	Size int64
	Hash string // hex sha256 of the content
}

// Page is one PDF page. Number is 1-indexed.
type Page struct {
	Number int
	Text   string
}

// Open stats and hashes path and resolves its kind from the extension.
func Open(path string) (Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Document{}, fmt.Errorf("abs path: %w", err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return Document{}, common.CorruptError(abs, err)
	}
	if !fi.Mode().IsRegular() {
		return Document{}, common.NewAppError("NOT_A_FILE", abs+" is not a regular file", common.ErrInvalidInput)
	}

	f, err := os.Open(abs)
	if err != nil {
		return Document{}, common.CorruptError(abs, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return Document{}, common.CorruptError(abs, err)
	}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	return Document{
		Path: abs,
		Name: BaseName(abs),
		Ext:  ext,
		Kind: constants.MapExtToKind(ext),
		Size: fi.Size(),
		Hash: hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// BaseName returns the file name of path without its extension.
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
