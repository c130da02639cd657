package pdfs

import "io"

// Canvas is the drawing surface of the current page.
// Coordinates are in mm from the top-left corner; y of text is its baseline.
type Canvas interface {
	SetFont(family string, style string, size float64)
	SetFontStyle(style string) // "" normal, "B" bold, "I" italic
	SetFontSize(size float64)
	SetDrawColor(r, g, b int)
	SetTextColor(r, g, b int)

	Text(x float64, y float64, text string)
	TextCentered(cx float64, y float64, text string)
	Line(x1, y1, x2, y2 float64)
	Image(name string, png []byte, x, y, w, h float64)

	StringWidth(text string) float64
	// SplitText wraps text to lines no wider than width
	SplitText(text string, width float64) []string
}

// Metadata for the document information dictionary
type Metadata struct {
	Title   string
	Author  string
	Subject string
	Creator string
}

// Writer - minimal, stream-style, append-only PDF writer. No page navigation
// T: Concrete Template Type -> depends on each implementation
type Writer[T any] interface {
	Canvas

	PaperSize() PaperSize
	Orientation() string

	TemplateStore() *TemplateStore[T]
	// DefineTemplate records drawing commands once, to be stamped on pages
	DefineTemplate(storeKey string, draw func(Canvas))

	AddBlankPage()
	AddTemplatePage(storeKey string) bool
	PageCount() int

	SetMetadata(meta Metadata)

	// Err reports the first drawing error, if any
	Err() error

	WriteTo(w io.Writer) (int64, error)
	WriteToFile(filepath string) error
	ProduceBytes() ([]byte, error)
}
