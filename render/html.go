package render

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"

	"go.uber.org/zap"

	"github.com/zeptools/gw-docgen/documents"
	"github.com/zeptools/gw-docgen/htmlpdf"
	"github.com/zeptools/gw-docgen/pdfs"
	"github.com/zeptools/gw-docgen/share"
	"github.com/zeptools/gw-docgen/tpl"
)

//go:embed templates
var templatesFS embed.FS

const documentTemplate = "document"

type pdfConverter interface {
	ConvertHTML(ctx context.Context, html string, pg htmlpdf.PageConfig) ([]byte, error)
	Close() error
}

// HTMLRenderer executes the document template and prints it with headless Chrome
type HTMLRenderer struct {
	store     *tpl.HTMLTemplateStore
	converter pdfConverter
	page      htmlpdf.PageConfig
	logger    *zap.Logger
}

var _ Renderer = (*HTMLRenderer)(nil)

// NewHTMLRenderer fails when Chrome cannot be started
func NewHTMLRenderer(cfg Config, logger *zap.Logger) (*HTMLRenderer, error) {
	opts := []htmlpdf.Option{htmlpdf.WithTimeout(cfg.Timeout)}
	if cfg.ChromePath != "" {
		opts = append(opts, htmlpdf.WithChromePath(cfg.ChromePath))
	}
	if cfg.NoSandbox {
		opts = append(opts, htmlpdf.WithNoSandbox())
	}
	conv, err := htmlpdf.NewConverter(opts...)
	if err != nil {
		return nil, err
	}
	r, err := newHTMLRenderer(conv, logger)
	if err != nil {
		_ = conv.Close()
		return nil, err
	}
	if cfg.Paper.Width != 0 {
		r.page.Paper = cfg.Paper
	}
	return r, nil
}

func newHTMLRenderer(conv pdfConverter, logger *zap.Logger) (*HTMLRenderer, error) {
	store := tpl.NewHTMLTemplateStore(logger, Funcs())
	if err := store.LoadBaseTemplatesFS(templatesFS, "templates"); err != nil {
		return nil, err
	}
	return &HTMLRenderer{store: store, converter: conv, page: htmlpdf.DefaultPageConfig(), logger: logger}, nil
}

func (r *HTMLRenderer) Name() string {
	return EngineHTML
}

type documentView struct {
	Doc      *documents.Document
	QRCode   template.URL // data URI, empty without a share link
	ShareURL string
	Paper    pdfs.PaperSize
}

// HTML is the page that gets printed
func (r *HTMLRenderer) HTML(doc *documents.Document, extras Extras) (string, error) {
	view := documentView{Doc: doc, ShareURL: extras.ShareURL, Paper: r.page.Paper}
	if extras.ShareURL != "" {
		png, err := share.QRCodePNG(extras.ShareURL, qrPixels)
		if err != nil {
			return "", fmt.Errorf("qr code: %w", err)
		}
		view.QRCode = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
	}
	var buf bytes.Buffer
	if err := r.store.Execute(&buf, documentTemplate, view); err != nil {
		return "", fmt.Errorf("document template: %w", err)
	}
	return buf.String(), nil
}

func (r *HTMLRenderer) Render(ctx context.Context, doc *documents.Document, extras Extras) ([]byte, error) {
	html, err := r.HTML(doc, extras)
	if err != nil {
		return nil, err
	}
	pdf, err := r.converter.ConvertHTML(ctx, html, r.page)
	if err != nil {
		r.logger.Warn("html render failed", zap.String("number", doc.Number), zap.Error(err))
		return nil, err
	}
	return pdf, nil
}

func (r *HTMLRenderer) Close() error {
	return r.converter.Close()
}
