package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"

	ledpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Match describes the first placeholder occurrence on a page.
// Coordinates are PDF user space: points, origin at the lower-left corner.
type Match struct {
	Rect     *types.Rectangle
	Baseline float64
	FontName string
	FontSize float64
}

const (
	descentRatio = 0.25
	ascentRatio  = 0.95
	wordGapRatio = 0.15
)

// Locate opens data and runs LocatePlaceholder on its first page.
func Locate(data []byte, placeholder string) (*Match, error) {
	r, err := ledpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	if r.NumPage() < 1 {
		return nil, fmt.Errorf("%w: no pages", ErrInvalidPDF)
	}
	return LocatePlaceholder(r.Page(1), placeholder)
}

// LocatePlaceholder finds the first exact occurrence of placeholder in the
// page text. Later occurrences are ignored.
func LocatePlaceholder(page ledpdf.Page, placeholder string) (m *Match, err error) {
	if placeholder == "" {
		return nil, errors.New("empty placeholder")
	}
	if page.V.IsNull() {
		return nil, fmt.Errorf("%w: missing page", ErrInvalidPDF)
	}

	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("%w: read page text: %v", ErrInvalidPDF, r)
		}
	}()

	glyphs := reflow(page.Content().Text)
	text, owner := joinGlyphs(glyphs)

	i := strings.Index(text, placeholder)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrPlaceholderNotFound, placeholder)
	}

	first := -1
	minX, maxX, size := math.Inf(1), math.Inf(-1), 0.0
	for _, g := range owner[i : i+len(placeholder)] {
		if g < 0 {
			continue
		}
		t := glyphs[g]
		if first < 0 {
			first = g
		}
		minX = math.Min(minX, t.X)
		maxX = math.Max(maxX, t.X+t.W)
		size = math.Max(size, t.FontSize)
	}
	if first < 0 {
		return nil, fmt.Errorf("%w: %q", ErrPlaceholderNotFound, placeholder)
	}

	baseline := glyphs[first].Y
	return &Match{
		Rect:     types.NewRectangle(minX, baseline-descentRatio*size, maxX, baseline+ascentRatio*size),
		Baseline: baseline,
		FontName: glyphs[first].Font,
		FontSize: size,
	}, nil
}

// reflow fills in advance widths that the producer left out. Fonts without a
// /Widths array yield zero-width glyphs that all share their run's origin;
// those are rebuilt from core font metrics.
func reflow(in []ledpdf.Text) []ledpdf.Text {
	out := make([]ledpdf.Text, len(in))
	copy(out, in)
	for i := range out {
		if in[i].W != 0 {
			continue
		}
		out[i].W = advance(in[i])
		if i > 0 && in[i-1].W == 0 && in[i].X == in[i-1].X && in[i].Y == in[i-1].Y {
			out[i].X = out[i-1].X + out[i-1].W
		}
	}
	return out
}

func advance(t ledpdf.Text) float64 {
	name := t.Font
	if !font.IsCoreFont(name) {
		name = coreFace(name).coreName()
	}
	if font.IsCoreFont(name) {
		return font.TextWidth(t.S, name, 1000) / 1000 * t.FontSize
	}
	return 0.5 * t.FontSize * float64(len([]rune(t.S)))
}

// joinGlyphs concatenates glyph strings, inserting a space for visible word
// gaps and a newline for baseline changes. owner maps every byte of the
// result to its glyph index, or -1 for inserted separators.
func joinGlyphs(glyphs []ledpdf.Text) (string, []int) {
	var b strings.Builder
	owner := make([]int, 0, len(glyphs))
	for i, g := range glyphs {
		if i > 0 {
			prev := glyphs[i-1]
			size := math.Max(g.FontSize, 1)
			switch {
			case math.Abs(g.Y-prev.Y) > size/2:
				b.WriteByte('\n')
				owner = append(owner, -1)
			case g.X-(prev.X+prev.W) > wordGapRatio*size && !isBlank(prev.S) && !isBlank(g.S):
				b.WriteByte(' ')
				owner = append(owner, -1)
			}
		}
		b.WriteString(g.S)
		for range len(g.S) {
			owner = append(owner, i)
		}
	}
	return b.String(), owner
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
