// Package documenttest builds small but well-formed documents for tests.
package documenttest

import (
	"fmt"
	"strings"
)

// Page is one page of a generated PDF.
type Page struct {
	// Text is drawn in Helvetica near the top of the page.
	Text string
	// Pixel, when set, is drawn as a 1x1 uncompressed DeviceRGB image and must
	// hold exactly 3 bytes.
	Pixel []byte
}

// PDF returns a PDF 1.4 file with one page per entry and an exact xref table.
func PDF(pages ...Page) []byte {
	return PDFWithHeader("%PDF-1.4\n", pages...)
}

// PDFWithHeader is PDF with a caller-supplied header line, which lets tests
// produce files that only some parsers accept.
func PDFWithHeader(header string, pages ...Page) []byte {
	const font = 3
	objs := map[int]string{
		font: "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	next := 4
	kids := make([]string, 0, len(pages))
	for _, p := range pages {
		pageNr, contentNr := next, next+1
		next += 2
		kids = append(kids, fmt.Sprintf("%d 0 R", pageNr))

		resources := fmt.Sprintf("/Font << /F1 %d 0 R >>", font)
		var content strings.Builder
		if p.Text != "" {
			fmt.Fprintf(&content, "BT\n/F1 12 Tf\n72 720 Td\n(%s) Tj\nET\n", escape(p.Text))
		}
		if p.Pixel != nil {
			imgNr := next
			next++
			resources += fmt.Sprintf(" /XObject << /Im1 %d 0 R >>", imgNr)
			content.WriteString("q 100 0 0 100 72 600 cm /Im1 Do Q\n")
			objs[imgNr] = fmt.Sprintf("<< /Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceRGB /BitsPerComponent 8 /Length %d >>\nstream\n%s\nendstream",
				len(p.Pixel), p.Pixel)
		}
		objs[pageNr] = fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << %s >> >>", contentNr, resources)
		objs[contentNr] = fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String())
	}
	objs[1] = "<< /Type /Catalog /Pages 2 0 R >>"
	objs[2] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var b strings.Builder
	b.WriteString(header)
	offsets := make([]int, next)
	for nr := 1; nr < next; nr++ {
		offsets[nr] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", nr, objs[nr])
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", next)
	for nr := 1; nr < next; nr++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[nr])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", next, xref)
	return []byte(b.String())
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(s)
}
