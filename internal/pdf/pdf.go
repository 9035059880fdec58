// Package pdf places a person's name over the placeholder of a PDF template.
//
// Types:
//   - Template: a validated template with its located placeholder.
//   - Match: where the placeholder sits on page one and which font draws it.
//   - FontResolver: maps template font names onto drawable fonts.
//   - Stamper: loads templates and produces one document per name.
//
// The placeholder is found with ledongthuc/pdf, a white box and the name are
// drawn on a same-sized overlay page with fpdf, and pdfcpu stamps the overlay
// onto a copy of the template. The template bytes are never modified.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/niklasemond/diploma-generator-2/internal/utils"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var (
	ErrPlaceholderNotFound = errors.New("placeholder not found")
	ErrNotPDF              = errors.New("not a PDF file")
	ErrInvalidPDF          = errors.New("invalid PDF")
	ErrNoFontForText       = errors.New("no installed font can draw the text")
)

// overlayDesc stamps the overlay page 1:1 onto the lower-left corner.
const overlayDesc = "scale:1 abs, pos:bl, off:0 0, rot:0, op:1"

// Template is an uploaded template with its placeholder located on page one.
type Template struct {
	Placeholder string
	PageCount   int
	// Page is the size of the first page in points.
	Page  types.Dim
	Match *Match

	data []byte
}

type Stamper struct {
	conf    *model.Configuration
	fonts   *FontResolver
	padding float64
}

// NewStamper returns a Stamper drawing names with fonts from fonts, erasing
// padding points around each placeholder.
func NewStamper(fonts *FontResolver, padding float64) *Stamper {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	// classic xref tables keep output readable by simple parsers
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	return &Stamper{conf: conf, fonts: fonts, padding: padding}
}

// LoadTemplate validates data and locates placeholder on its first page.
func (s *Stamper) LoadTemplate(data []byte, placeholder string) (*Template, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, ErrNotPDF
	}

	ctx, err := pdfapi.ReadContext(bytes.NewReader(data), s.conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	if err := pdfapi.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("%w: page dimensions: %v", ErrInvalidPDF, err)
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: no pages", ErrInvalidPDF)
	}

	match, err := Locate(data, placeholder)
	if err != nil {
		return nil, err
	}

	return &Template{
		Placeholder: placeholder,
		PageCount:   ctx.PageCount,
		Page:        dims[0],
		Match:       match,
		data:        data,
	}, nil
}

// Substitute writes a copy of tpl to w with the placeholder on page one
// replaced by name. workDir receives a short-lived overlay file.
func (s *Stamper) Substitute(tpl *Template, name, workDir string, w io.Writer) error {
	face, err := s.fonts.Resolve(tpl.Match.FontName, name)
	if err != nil {
		return err
	}

	overlayPath := filepath.Join(workDir, fmt.Sprintf("overlay-%s.pdf", utils.GenerateUUID()))
	out, err := os.Create(overlayPath)
	if err != nil {
		return fmt.Errorf("failed to create overlay: %w", err)
	}
	defer os.Remove(overlayPath)

	if err := renderOverlay(out, tpl.Page, tpl.Match, name, face, s.padding); err != nil {
		out.Close()
		return fmt.Errorf("failed to render overlay: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to write overlay: %w", err)
	}

	wm, err := pdfapi.PDFWatermark(overlayPath, overlayDesc, true, false, types.POINTS)
	if err != nil {
		return fmt.Errorf("failed to parse overlay watermark: %w", err)
	}
	if err := pdfapi.AddWatermarks(bytes.NewReader(tpl.data), w, []string{"1"}, wm, s.conf); err != nil {
		return fmt.Errorf("failed to apply overlay: %w", err)
	}
	return nil
}
