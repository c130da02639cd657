package render

import (
	"context"
	"fmt"
	"time"

	"github.com/zeptools/gw-docgen/documents"
	"github.com/zeptools/gw-docgen/layout"
	"github.com/zeptools/gw-docgen/pdfs"
	"github.com/zeptools/gw-docgen/pdfs/impls/gofpdf"
	"github.com/zeptools/gw-docgen/share"
)

// NativeRenderer lays documents out with the layout package over gofpdf
type NativeRenderer struct {
	creator string
	paper   pdfs.PaperSize
	now     func() time.Time
}

var _ Renderer = (*NativeRenderer)(nil)

// NewNativeRenderer draws on A4 when paper is the zero value
func NewNativeRenderer(creator string, paper pdfs.PaperSize) *NativeRenderer {
	if paper.Width == 0 {
		paper = pdfs.A4Size
	}
	return &NativeRenderer{creator: creator, paper: paper, now: time.Now}
}

func (r *NativeRenderer) Name() string {
	return EngineNative
}

func (r *NativeRenderer) Render(ctx context.Context, doc *documents.Document, extras Extras) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts := layout.Options{Creator: r.creator}
	if extras.ShareURL != "" {
		png, err := share.QRCodePNG(extras.ShareURL, qrPixels)
		if err != nil {
			return nil, fmt.Errorf("qr code: %w", err)
		}
		opts.QRCode = png
		opts.QRCaption = qrCaption
	}

	w := gofpdf.New(gofpdf.WithPaperSize(r.paper), gofpdf.WithCreationDate(r.now()))
	if err := layout.Render(w, doc, opts); err != nil {
		return nil, err
	}
	return w.ProduceBytes()
}

func (r *NativeRenderer) Close() error {
	return nil
}
