package document

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/docs-extractor/constants"
)

const tableXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Statement of Financial Position</w:t></w:r></w:p>
<w:tbl>
  <w:tr>
    <w:tc><w:tcPr><w:gridSpan w:val="2"/></w:tcPr><w:p><w:r><w:t>Group</w:t></w:r></w:p></w:tc>
    <w:tc><w:p><w:r><w:t>2024</w:t></w:r></w:p></w:tc>
  </w:tr>
  <w:tr>
    <w:tc><w:tcPr><w:vMerge w:val="restart"/></w:tcPr><w:p><w:r><w:t>Assets</w:t></w:r></w:p></w:tc>
    <w:tc><w:p><w:r><w:t xml:space="preserve">Cash </w:t></w:r><w:r><w:t>and equivalents</w:t></w:r></w:p></w:tc>
    <w:tc><w:p><w:r><w:t>150</w:t></w:r></w:p></w:tc>
  </w:tr>
  <w:tr>
    <w:tc><w:tcPr><w:vMerge/></w:tcPr><w:p/></w:tc>
    <w:tc>
      <w:p><w:r><w:t>Receivables</w:t></w:r></w:p>
      <w:tbl><w:tr><w:tc><w:p><w:r><w:t>nested</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
      <w:p><w:r><w:t>net</w:t></w:r></w:p>
    </w:tc>
    <w:tc><w:p><w:r><w:t>40</w:t></w:r></w:p></w:tc>
  </w:tr>
</w:tbl>
<w:p><w:r><w:t>Between tables</w:t></w:r></w:p>
<w:tbl>
  <w:tr><w:tc><w:p><w:r><w:t>Revenue</w:t><w:tab/><w:t>net</w:t></w:r></w:p></w:tc></w:tr>
</w:tbl>
</w:body>
</w:document>`

func writeDocx(t *testing.T, dir string, files map[string]string) string {
	t.Helper()
	p := filepath.Join(dir, "report.docx")
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	// fixed order keeps archive order deterministic
	for _, name := range []string{"[Content_Types].xml", "word/document.xml", "word/media/image2.png", "word/media/image1.jpeg"} {
		body, ok := files[name]
		if !ok {
			continue
		}
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(w, body); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestReadDocxTables(t *testing.T) {
	p := writeDocx(t, t.TempDir(), map[string]string{"word/document.xml": tableXML})

	got, err := ReadDocxTables(p)
	if err != nil {
		t.Fatalf("ReadDocxTables: %v", err)
	}
	want := [][][]string{
		{
			{"Group", "Group", "2024"},
			{"Assets", "Cash and equivalents", "150"},
			{"Assets", "Receivables\nnet", "40"},
		},
		{
			{"Revenue\tnet"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tables mismatch (-want +got):\n%s", diff)
	}
}

func TestReadDocxTablesMissingBody(t *testing.T) {
	p := writeDocx(t, t.TempDir(), map[string]string{"[Content_Types].xml": "<Types/>"})
	if _, err := ReadDocxTables(p); err == nil {
		t.Fatal("expected error for archive without document.xml")
	}
}

func TestReadDocxTablesNotZip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "broken.docx")
	if err := os.WriteFile(p, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadDocxTables(p); err == nil {
		t.Fatal("expected error for non-zip input")
	}
}

func TestDocxMediaKeepsArchiveOrder(t *testing.T) {
	p := writeDocx(t, t.TempDir(), map[string]string{
		"word/document.xml":      tableXML,
		"word/media/image2.png":  "png-bytes",
		"word/media/image1.jpeg": "jpeg-bytes",
	})
	r, err := zip.OpenReader(p)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	media := DocxMedia(&r.Reader)
	if len(media) != 2 {
		t.Fatalf("got %d media files", len(media))
	}
	if media[0].Name != "image2.png" || media[0].Ext != "png" || media[1].Ext != "jpeg" {
		t.Fatalf("media = %+v", media)
	}
	rc, err := media[1].Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "jpeg-bytes" {
		t.Fatalf("content = %q", b)
	}
}

func TestOpenResolvesKindAndHash(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "Annual Report.PDF")
	if err := os.WriteFile(p, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := Open(p)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if doc.Kind != constants.PDF || doc.Name != "Annual Report" || doc.Ext != "pdf" || doc.Size != 3 {
		t.Fatalf("doc = %+v", doc)
	}
	// sha256("abc")
	if doc.Hash != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Fatalf("hash = %s", doc.Hash)
	}

	if _, err := Open(dir); err == nil {
		t.Fatal("expected error for a directory")
	}
}
