package pdfs

import "strings"

const mmPerPt = 25.4 / 72

type PaperSize struct {
	Name   string
	Width  float64 // in `pt` (1" = 72pts)
	Height float64 // in `pt`
}

var (
	LetterSize = PaperSize{Name: "Letter", Width: 612, Height: 792}           // 8.5" x 11"
	A4Size     = PaperSize{Name: "A4", Width: 595.27559, Height: 841.88976} // 210mm x 297mm
)

// PaperSizeByName looks up A4 or Letter, ignoring case
func PaperSizeByName(name string) (PaperSize, bool) {
	for _, p := range []PaperSize{A4Size, LetterSize} {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return PaperSize{}, false
}

func (p PaperSize) WidthMM() float64 {
	return p.Width * mmPerPt
}

func (p PaperSize) HeightMM() float64 {
	return p.Height * mmPerPt
}
