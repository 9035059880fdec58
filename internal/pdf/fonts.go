package pdf

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/niklasemond/diploma-generator-2/internal/logging"

	"golang.org/x/text/encoding/charmap"
)

// FontFace is a drawable font. File is empty for PDF core fonts.
type FontFace struct {
	Family string
	Style  string
	File   string
}

func (f FontFace) Core() bool { return f.File == "" }

// coreName returns the standard 14 font name for a core face.
func (f FontFace) coreName() string {
	bold, italic := strings.Contains(f.Style, "B"), strings.Contains(f.Style, "I")
	switch f.Family {
	case "Times":
		switch {
		case bold && italic:
			return "Times-BoldItalic"
		case bold:
			return "Times-Bold"
		case italic:
			return "Times-Italic"
		}
		return "Times-Roman"
	case "Courier":
		switch {
		case bold && italic:
			return "Courier-BoldOblique"
		case bold:
			return "Courier-Bold"
		case italic:
			return "Courier-Oblique"
		}
		return "Courier"
	}
	switch {
	case bold && italic:
		return "Helvetica-BoldOblique"
	case bold:
		return "Helvetica-Bold"
	case italic:
		return "Helvetica-Oblique"
	}
	return "Helvetica"
}

// FontResolver matches template font names against TrueType files found
// in a set of directories.
type FontResolver struct {
	index    map[string]string
	fallback string
}

// NewFontResolver indexes every .ttf below dirs. Missing or unreadable
// directories are skipped. fallback, when set, is a .ttf used for template
// fonts without a system match.
func NewFontResolver(dirs []string, fallback string) *FontResolver {
	r := &FontResolver{index: make(map[string]string), fallback: fallback}
	for _, dir := range dirs {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".ttf") {
				return nil
			}
			key := normalizeFontName(strings.TrimSuffix(d.Name(), filepath.Ext(d.Name())))
			if _, dup := r.index[key]; key != "" && !dup {
				r.index[key] = path
			}
			return nil
		})
	}
	logging.Debug("font index built", "fonts", len(r.index), "dirs", dirs)
	return r
}

// Len reports the number of indexed font files.
func (r *FontResolver) Len() int { return len(r.index) }

// Resolve picks the face used to draw text in place of the PDF font pdfName.
// Core faces only encode cp1252; other text falls back to the closest
// indexed TrueType font.
func (r *FontResolver) Resolve(pdfName, text string) (FontFace, error) {
	base := stripSubset(pdfName)
	key := normalizeFontName(base)
	if path, ok := r.index[key]; ok {
		return FontFace{Family: "tpl-" + key, File: path}, nil
	}
	if r.fallback != "" {
		return FontFace{Family: "fallback", File: r.fallback}, nil
	}

	face := coreFace(base)
	if coreEncodable(text) {
		return face, nil
	}
	if key, path, ok := r.closest(face); ok {
		logging.Debug("core font cannot encode text", "font", pdfName, "using", path)
		return FontFace{Family: "tpl-" + key, File: path}, nil
	}
	return FontFace{}, fmt.Errorf("%w: %q", ErrNoFontForText, text)
}

func coreEncodable(text string) bool {
	_, err := charmap.Windows1252.NewEncoder().String(text)
	return err == nil
}

// closest returns the indexed font nearest to a core face. Ties go to the
// lexically first key.
func (r *FontResolver) closest(face FontFace) (string, string, bool) {
	keys := make([]string, 0, len(r.index))
	for k := range r.index {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	best, bestScore := "", -1
	for _, k := range keys {
		if score := faceScore(k, face); score > bestScore {
			best, bestScore = k, score
		}
	}
	if best == "" {
		return "", "", false
	}
	return best, r.index[best], true
}

func faceScore(key string, face FontFace) int {
	score := 0
	switch face.Family {
	case "Times":
		if containsAny(key, "times", "serif") && !strings.Contains(key, "sans") {
			score += 4
		}
	case "Courier":
		if containsAny(key, "courier", "mono") {
			score += 4
		}
	default:
		if containsAny(key, "sans", "arial", "helvetica") && !strings.Contains(key, "mono") {
			score += 4
		}
	}
	if containsAny(key, "bold", "black", "heavy") == strings.Contains(face.Style, "B") {
		score += 2
	}
	if containsAny(key, "italic", "oblique") == strings.Contains(face.Style, "I") {
		score++
	}
	return score
}

// stripSubset drops the six-letter subset tag, as in "ABCDEF+Arial-BoldMT".
func stripSubset(name string) string {
	if i := strings.IndexByte(name, '+'); i >= 0 {
		return name[i+1:]
	}
	return name
}

var fontNameSuffixes = []string{"regular", "psmt", "mt", "ps"}

func normalizeFontName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	key := b.String()
	for _, suffix := range fontNameSuffixes {
		if trimmed := strings.TrimSuffix(key, suffix); trimmed != "" && trimmed != key {
			key = trimmed
			break
		}
	}
	return key
}

// coreFace maps a font name onto the closest core family and style.
func coreFace(name string) FontFace {
	l := strings.ToLower(stripSubset(name))

	style := ""
	if containsAny(l, "bold", "black", "heavy", "semibold") {
		style += "B"
	}
	if containsAny(l, "italic", "oblique") {
		style += "I"
	}

	family := "Helvetica"
	switch {
	case containsAny(l, "courier", "mono", "consol"):
		family = "Courier"
	case strings.Contains(l, "sans"):
	case containsAny(l, "times", "serif", "roman", "georgia", "garamond", "cambria", "book"):
		family = "Times"
	}
	return FontFace{Family: family, Style: style}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
