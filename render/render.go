// Package render turns a document into PDF bytes with one of two engines:
// "native" draws with gofpdf, "html" prints an HTML page in headless Chrome.
package render

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zeptools/gw-docgen/documents"
	"github.com/zeptools/gw-docgen/pdfs"
)

const (
	EngineNative = "native"
	EngineHTML   = "html"
)

const (
	qrPixels  = 256
	qrCaption = "Scan to view online"
)

// Extras are request-dependent additions to a render
type Extras struct {
	ShareURL string // encoded as a QR code when set
}

type Renderer interface {
	Name() string
	Render(ctx context.Context, doc *documents.Document, extras Extras) ([]byte, error)
	Close() error
}

type Config struct {
	Creator    string // PDF metadata, e.g. the app name
	ChromePath string // html engine only, "" = look up in PATH
	NoSandbox  bool
	Timeout    time.Duration  // html engine conversion timeout
	Paper      pdfs.PaperSize // zero = A4
}

// New builds the named engine. "" selects the native one
func New(engine string, cfg Config, logger *zap.Logger) (Renderer, error) {
	switch engine {
	case "", EngineNative:
		return NewNativeRenderer(cfg.Creator, cfg.Paper), nil
	case EngineHTML:
		return NewHTMLRenderer(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown render engine %q", engine)
	}
}
