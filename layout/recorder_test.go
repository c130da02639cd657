package layout

import (
	"errors"
	"io"
	"strings"

	"github.com/zeptools/gw-docgen/pdfs"
)

// op is one recorded draw command
type op struct {
	Page     int
	Kind     string // "text", "line", "image"
	X, Y     float64
	X2, Y2   float64
	S        string
	Style    string
	Size     float64
	Template bool
	Grey     bool
}

// recorder is a pdfs.Writer that keeps draw commands instead of producing a PDF.
// Every glyph is 2mm wide, so wrapping is predictable.
type recorder struct {
	ops       []op
	page      int
	style     string
	size      float64
	meta      pdfs.Metadata
	paper     pdfs.PaperSize // zero = A4
	templates *pdfs.TemplateStore[[]op]
	inTpl     bool
	grey      bool
}

var _ pdfs.Writer[[]op] = (*recorder)(nil)

func newRecorder() *recorder {
	return &recorder{templates: pdfs.NewTemplateStore[[]op]()}
}

func (r *recorder) add(o op) {
	o.Page = r.page
	o.Style = r.style
	o.Size = r.size
	o.Template = r.inTpl
	o.Grey = r.grey
	r.ops = append(r.ops, o)
}

func (r *recorder) SetFont(_ string, style string, size float64) { r.style, r.size = style, size }
func (r *recorder) SetFontStyle(style string)                      { r.style = style }
func (r *recorder) SetFontSize(size float64)                       { r.size = size }
func (r *recorder) SetDrawColor(_, _, _ int)                       {}
func (r *recorder) SetTextColor(red, _, _ int)                     { r.grey = red > 0 }

func (r *recorder) Text(x, y float64, s string) {
	r.add(op{Kind: "text", X: x, Y: y, S: s})
}

func (r *recorder) TextCentered(cx, y float64, s string) {
	r.add(op{Kind: "text", X: cx - r.StringWidth(s)/2, Y: y, S: s})
}

func (r *recorder) Line(x1, y1, x2, y2 float64) {
	r.add(op{Kind: "line", X: x1, Y: y1, X2: x2, Y2: y2})
}

func (r *recorder) Image(name string, _ []byte, x, y, w, h float64) {
	r.add(op{Kind: "image", S: name, X: x, Y: y, X2: x + w, Y2: y + h})
}

func (r *recorder) StringWidth(s string) float64 {
	return 2 * float64(len([]rune(s)))
}

func (r *recorder) SplitText(s string, width float64) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if r.StringWidth(line+" "+w) <= width {
			line += " " + w
			continue
		}
		lines = append(lines, line)
		line = w
	}
	return append(lines, line)
}

func (r *recorder) Orientation() string                     { return "P" }
func (r *recorder) TemplateStore() *pdfs.TemplateStore[[]op] { return r.templates }

func (r *recorder) PaperSize() pdfs.PaperSize {
	if r.paper.Width == 0 {
		return pdfs.A4Size
	}
	return r.paper
}

func (r *recorder) DefineTemplate(key string, draw func(pdfs.Canvas)) {
	tpl := &recorder{inTpl: true}
	draw(tpl)
	r.templates.Store(key, tpl.ops)
}

func (r *recorder) AddBlankPage() {
	r.page++
}

func (r *recorder) AddTemplatePage(key string) bool {
	tpl, ok := r.templates.Get(key)
	if !ok {
		return false
	}
	r.page++
	for _, o := range tpl {
		o.Page = r.page
		r.ops = append(r.ops, o)
	}
	return true
}

func (r *recorder) PageCount() int              { return r.page }
func (r *recorder) SetMetadata(m pdfs.Metadata) { r.meta = m }
func (r *recorder) Err() error                  { return nil }

func (r *recorder) WriteTo(io.Writer) (int64, error) { return 0, errors.New("recorder") }
func (r *recorder) WriteToFile(string) error         { return errors.New("recorder") }
func (r *recorder) ProduceBytes() ([]byte, error)    { return nil, errors.New("recorder") }

// texts returns every page text op with the given content, footer excluded
func (r *recorder) texts(s string) []op {
	var found []op
	for _, o := range r.ops {
		if o.Kind == "text" && o.S == s && !o.Template {
			found = append(found, o)
		}
	}
	return found
}

func (r *recorder) kind(kind string) []op {
	var found []op
	for _, o := range r.ops {
		if o.Kind == kind && !o.Template {
			found = append(found, o)
		}
	}
	return found
}
