package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/docs-extractor/internal/common"
)

type DirStats struct {
	Scanned uint32
	Matched uint32
	Hidden  uint32
	Skipped uint32 // directories, symlinks to non-files, unreadable entries
}

// ListDocuments returns the regular files directly inside root, sorted by
// name. Subdirectories are not descended into. Hidden files are left out when
// skipHidden is set.
func ListDocuments(root string, skipHidden bool) ([]string, DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(root) == "" {
		return nil, stats, common.NewAppError("INVALID_INPUT", "input directory is required", common.ErrInvalidInput)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, stats, common.NewAppError("INPUT_NOT_FOUND", root+" does not exist", common.ErrInvalidInput)
		}
		return nil, stats, fmt.Errorf("read input dir: %w", err)
	}

	var out []string
	for _, e := range entries {
		stats.Scanned++
		path := filepath.Join(root, e.Name())
		if skipHidden && IsHidden(path) {
			stats.Hidden++
			continue
		}
		// Stat follows symlinks so a link to a regular file counts as one.
		fi, err := os.Stat(path)
		if err != nil || !fi.Mode().IsRegular() {
			stats.Skipped++
			continue
		}
		stats.Matched++
		out = append(out, path)
	}
	sort.Strings(out)
	return out, stats, nil
}
