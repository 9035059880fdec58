// Package pdftest builds template PDFs for tests and inspects generated ones.
package pdftest

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
	ledpdf "github.com/ledongthuc/pdf"
)

// Line is a text run drawn at baseline (X, Y), with Y measured from the top.
type Line struct {
	X, Y  float64
	Font  string
	Style string
	Size  float64
	Text  string
}

// Page is one page of a fixture document, in points.
type Page struct {
	Width, Height float64
	Lines         []Line
}

// Build renders pages with fpdf core fonts.
func Build(tb testing.TB, pages ...Page) []byte {
	tb.Helper()
	doc := fpdf.New("P", "pt", "A4", "")
	doc.SetAutoPageBreak(false, 0)
	for _, p := range pages {
		doc.AddPageFormat("P", fpdf.SizeType{Wd: p.Width, Ht: p.Height})
		for _, l := range p.Lines {
			doc.SetFont(l.Font, l.Style, l.Size)
			doc.Text(l.X, l.Y, l.Text)
		}
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		tb.Fatalf("build fixture pdf: %v", err)
	}
	return buf.Bytes()
}

// Certificate returns a landscape A4 certificate with placeholder on its own
// line in 28pt Times, plus a second plain page.
func Certificate(tb testing.TB, placeholder string) []byte {
	tb.Helper()
	return Build(tb,
		Page{Width: 842, Height: 595, Lines: []Line{
			{X: 250, Y: 150, Font: "Helvetica", Style: "B", Size: 36, Text: "Certificate of Completion"},
			{X: 330, Y: 230, Font: "Helvetica", Size: 16, Text: "This certifies that"},
			{X: 340, Y: 300, Font: "Times", Size: 28, Text: placeholder},
			{X: 260, Y: 380, Font: "Helvetica", Size: 14, Text: "has completed the course with distinction."},
		}},
		Page{Width: 842, Height: 595, Lines: []Line{
			{X: 72, Y: 72, Font: "Helvetica", Size: 12, Text: "Course outline"},
		}},
	)
}

// PageText returns the glyph runs of page n (1-based).
func PageText(tb testing.TB, data []byte, n int) []ledpdf.Text {
	tb.Helper()
	r, err := ledpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		tb.Fatalf("open pdf: %v", err)
	}
	return r.Page(n).Content().Text
}

// PlainText concatenates the glyphs of page n.
func PlainText(tb testing.TB, data []byte, n int) string {
	tb.Helper()
	var b strings.Builder
	for _, t := range PageText(tb, data, n) {
		b.WriteString(t.S)
	}
	return b.String()
}

// NumPage reports the page count as seen by ledongthuc/pdf.
func NumPage(tb testing.TB, data []byte) int {
	tb.Helper()
	r, err := ledpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		tb.Fatalf("open pdf: %v", err)
	}
	return r.NumPage()
}

// Streams returns the decoded content of page n together with every form
// XObject reachable from its resources. Stamped overlays live in such forms.
func Streams(tb testing.TB, data []byte, n int) string {
	tb.Helper()
	r, err := ledpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		tb.Fatalf("open pdf: %v", err)
	}
	page := r.Page(n)

	var b strings.Builder
	contents := page.V.Key("Contents")
	if contents.Kind() == ledpdf.Array {
		for i := 0; i < contents.Len(); i++ {
			readStream(&b, contents.Index(i))
		}
	} else {
		readStream(&b, contents)
	}
	collectForms(&b, page.Resources(), 0)
	return b.String()
}

func collectForms(b *strings.Builder, res ledpdf.Value, depth int) {
	if depth > 8 || res.IsNull() {
		return
	}
	xobjects := res.Key("XObject")
	for _, key := range xobjects.Keys() {
		xo := xobjects.Key(key)
		if xo.Key("Subtype").Name() != "Form" {
			continue
		}
		readStream(b, xo)
		collectForms(b, xo.Key("Resources"), depth+1)
	}
}

func readStream(b *strings.Builder, v ledpdf.Value) {
	if v.Kind() != ledpdf.Stream {
		return
	}
	rc := v.Reader()
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	b.Write(data)
	b.WriteByte('\n')
}
