package pdf

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// overlayDate pins the overlay metadata so equal input renders equal output.
var overlayDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// renderOverlay writes a single page of size page holding a white box over
// m and name centered inside m's rectangle.
func renderOverlay(w io.Writer, page types.Dim, m *Match, name string, face FontFace, padding float64) error {
	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: page.Width, Ht: page.Height},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.SetCreationDate(overlayDate)
	doc.SetModificationDate(overlayDate)
	doc.SetCatalogSort(true)

	text := name
	if face.Core() {
		text = doc.UnicodeTranslatorFromDescriptor("")(name)
	} else {
		data, err := os.ReadFile(face.File)
		if err != nil {
			return fmt.Errorf("read font %s: %w", face.File, err)
		}
		doc.AddUTF8FontFromBytes(face.Family, face.Style, data)
	}

	doc.AddPage()

	// fpdf measures y from the top edge
	rect := m.Rect
	top := page.Height - rect.UR.Y

	doc.SetFillColor(255, 255, 255)
	doc.Rect(rect.LL.X-padding, top-padding, rect.Width()+2*padding, rect.Height()+2*padding, "F")

	doc.SetFont(face.Family, face.Style, m.FontSize)
	doc.SetTextColor(0, 0, 0)
	doc.SetXY(rect.LL.X, top)
	doc.CellFormat(rect.Width(), rect.Height(), text, "", 0, "CM", false, 0, "")

	if err := doc.Error(); err != nil {
		return err
	}
	return doc.Output(w)
}
