package ingest

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/docs-extractor/constants"
)

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

// reservedNames cannot be document folders: the batch report lives at the
// output root, and "", "." and ".." resolve to the root itself.
var reservedNames = map[string]struct{}{
	constants.BatchReport: {},
	"":                    {},
	".":                   {},
	"..":                  {},
}

// OutputNames maps each input path to its output folder name: the base name
// without extension. Inputs that would share a folder (report.pdf and
// report.docx) or hit a reserved name (batch_report.json.pdf) get the
// normalized extension appended instead, report_pdf and report_docx, so that
// no two documents write to the same directory.
func OutputNames(paths []string) map[string]string {
	stem := func(p string) string {
		base := filepath.Base(p)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	count := make(map[string]int, len(paths))
	for _, p := range paths {
		count[stem(p)]++
	}

	out := make(map[string]string, len(paths))
	taken := make(map[string]struct{}, len(paths)+len(reservedNames))
	for name := range reservedNames {
		taken[name] = struct{}{}
	}
	for _, p := range paths {
		name := stem(p)
		_, reserved := reservedNames[name]
		if count[name] > 1 || reserved {
			if ext := constants.NormalizeExt(filepath.Ext(p)); ext != "" {
				name += "_" + ext
			}
		}
		// a.pdf, a.PDF and a_pdf.txt can still collide; number what is left
		base := name
		for i := 2; ; i++ {
			if _, dup := taken[name]; !dup {
				break
			}
			name = base + "_" + strconv.Itoa(i)
		}
		taken[name] = struct{}{}
		out[p] = name
	}
	return out
}
