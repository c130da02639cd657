package gofpdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/zeptools/gw-docgen/pdfs"
	"github.com/zeptools/gw-docgen/rw"

	lowimpl "github.com/jung-kurt/gofpdf"
)

const (
	orientationPortrait = "P"
	unitMM              = "mm"
)

type Writer struct {
	canvas    // [Embedded] drawing on the document itself
	paperSize pdfs.PaperSize
	templates *pdfs.TemplateStore[lowimpl.Template]
	output    []byte // cached; gofpdf drains its buffer on Output
}

// Ensure gofpdf.Writer implements pdfs.Writer
var _ pdfs.Writer[lowimpl.Template] = (*Writer)(nil)

type config struct {
	paperSize    pdfs.PaperSize
	creationDate time.Time
	compress     bool
}

type Option func(*config)

// WithPaperSize selects A4 (default) or Letter
func WithPaperSize(size pdfs.PaperSize) Option {
	return func(c *config) {
		c.paperSize = size
	}
}

// WithCreationDate pins the creation date, making output reproducible
func WithCreationDate(t time.Time) Option {
	return func(c *config) {
		c.creationDate = t
	}
}

func WithCompression(compress bool) Option {
	return func(c *config) {
		c.compress = compress
	}
}

// New makes a portrait, mm-unit writer with no automatic page breaks.
// All placement is absolute, so pages are only added explicitly.
func New(opts ...Option) *Writer {
	cfg := config{paperSize: pdfs.A4Size, compress: true}
	for _, o := range opts {
		o(&cfg)
	}
	f := lowimpl.New(orientationPortrait, unitMM, cfg.paperSize.Name, "")
	f.SetMargins(0, 0, 0)
	f.SetAutoPageBreak(false, 0)
	f.SetCompression(cfg.compress)
	if !cfg.creationDate.IsZero() {
		f.SetCreationDate(cfg.creationDate)
	}
	return &Writer{
		canvas: canvas{
			f:  f,
			tr: f.UnicodeTranslatorFromDescriptor(""), // cp1252 for core fonts, e.g. "£"
		},
		paperSize: cfg.paperSize,
		templates: pdfs.NewTemplateStore[lowimpl.Template](),
	}
}

func (w *Writer) PaperSize() pdfs.PaperSize {
	return w.paperSize
}

func (w *Writer) Orientation() string {
	return orientationPortrait
}

func (w *Writer) TemplateStore() *pdfs.TemplateStore[lowimpl.Template] {
	return w.templates
}

func (w *Writer) DefineTemplate(storeKey string, draw func(pdfs.Canvas)) {
	tpl := w.f.CreateTemplate(func(t *lowimpl.Tpl) {
		draw(&canvas{f: &t.Fpdf, tr: w.tr})
	})
	w.templates.Store(storeKey, tpl)
}

func (w *Writer) AddBlankPage() {
	w.f.AddPage()
}

func (w *Writer) AddTemplatePage(storeKey string) bool {
	tpl, ok := w.templates.Get(storeKey)
	if !ok {
		return false
	}
	w.f.AddPage()
	w.f.UseTemplate(tpl)
	return true
}

func (w *Writer) PageCount() int {
	return w.f.PageNo()
}

// SetMetadata stores the info strings cp1252-translated, like page text
func (w *Writer) SetMetadata(meta pdfs.Metadata) {
	if meta.Title != "" {
		w.f.SetTitle(w.tr(meta.Title), false)
	}
	if meta.Author != "" {
		w.f.SetAuthor(w.tr(meta.Author), false)
	}
	if meta.Subject != "" {
		w.f.SetSubject(w.tr(meta.Subject), false)
	}
	if meta.Creator != "" {
		w.f.SetCreator(w.tr(meta.Creator), false)
	}
}

func (w *Writer) Err() error {
	return w.f.Error()
}

func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	b, err := w.ProduceBytes()
	if err != nil {
		return 0, err
	}
	cw := rw.NewCountWriter(dst)
	_, err = cw.Write(b)
	return cw.BytesWritten(), err
}

func (w *Writer) WriteToFile(filepath string) error {
	b, err := w.ProduceBytes()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, b, 0o644)
}

func (w *Writer) ProduceBytes() ([]byte, error) {
	if w.output != nil {
		return w.output, nil
	}
	if w.f.PageNo() == 0 {
		return nil, fmt.Errorf("gofpdf: document has no pages")
	}
	var buf bytes.Buffer
	if err := w.f.Output(&buf); err != nil {
		return nil, fmt.Errorf("gofpdf: output: %w", err)
	}
	w.output = buf.Bytes()
	return w.output, nil
}

// canvas draws on either the document or a template being recorded
type canvas struct {
	f  *lowimpl.Fpdf
	tr func(string) string
}

func (c *canvas) SetFont(family string, style string, size float64) {
	c.f.SetFont(family, style, size)
}

func (c *canvas) SetFontStyle(style string) {
	c.f.SetFontStyle(style)
}

func (c *canvas) SetFontSize(size float64) {
	c.f.SetFontSize(size)
}

func (c *canvas) SetDrawColor(r, g, b int) {
	c.f.SetDrawColor(r, g, b)
}

func (c *canvas) SetTextColor(r, g, b int) {
	c.f.SetTextColor(r, g, b)
}

func (c *canvas) Text(x float64, y float64, text string) {
	c.f.Text(x, y, c.tr(text))
}

func (c *canvas) TextCentered(cx float64, y float64, text string) {
	s := c.tr(text)
	c.f.Text(cx-c.f.GetStringWidth(s)/2, y, s)
}

func (c *canvas) Line(x1, y1, x2, y2 float64) {
	c.f.Line(x1, y1, x2, y2)
}

func (c *canvas) Image(name string, png []byte, x, y, w, h float64) {
	opt := lowimpl.ImageOptions{ImageType: "PNG", ReadDpi: false}
	if c.f.GetImageInfo(name) == nil {
		c.f.RegisterImageOptionsReader(name, opt, bytes.NewReader(png))
	}
	c.f.ImageOptions(name, x, y, w, h, false, opt, 0, "")
}

func (c *canvas) StringWidth(text string) float64 {
	return c.f.GetStringWidth(c.tr(text))
}

// SplitText wraps greedily on spaces; a word wider than width is cut by rune.
// Measuring happens on the translated string since core font widths are per cp1252 byte.
func (c *canvas) SplitText(text string, width float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}
	var (
		lines []string
		line  string
	)
	for _, word := range words {
		for c.StringWidth(word) > width && len([]rune(word)) > 1 {
			head, tail := c.cutToWidth(word, width)
			if line != "" {
				lines = append(lines, line)
				line = ""
			}
			lines = append(lines, head)
			word = tail
		}
		switch {
		case line == "":
			line = word
		case c.StringWidth(line+" "+word) <= width:
			line += " " + word
		default:
			lines = append(lines, line)
			line = word
		}
	}
	return append(lines, line)
}

func (c *canvas) cutToWidth(word string, width float64) (string, string) {
	runes := []rune(word)
	n := 1
	for n < len(runes) && c.StringWidth(string(runes[:n+1])) <= width {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}
