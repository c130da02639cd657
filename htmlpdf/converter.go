// Package htmlpdf prints HTML to PDF through a headless Chrome kept alive
// for the lifetime of the Converter.
package htmlpdf

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/zeptools/gw-docgen/pdfs"
)

var ErrClosed = errors.New("htmlpdf: converter is closed")

const mmPerInch = 25.4

type config struct {
	chromePath string
	timeout    time.Duration
	noSandbox  bool
}

type Option func(*config)

// WithChromePath selects the Chrome/Chromium executable; empty searches standard locations
func WithChromePath(path string) Option {
	return func(c *config) {
		c.chromePath = path
	}
}

// WithTimeout bounds a single conversion. <= 0 disables it
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithNoSandbox is required when running as root, e.g. in containers
func WithNoSandbox() Option {
	return func(c *config) {
		c.noSandbox = true
	}
}

// PageConfig of the printed document
type PageConfig struct {
	Paper           pdfs.PaperSize
	MarginMM        float64
	PrintBackground bool
}

// DefaultPageConfig is A4 without margins; the HTML carries its own spacing
func DefaultPageConfig() PageConfig {
	return PageConfig{Paper: pdfs.A4Size, PrintBackground: true}
}

// inches as expected by PrintToPDF
func (p PageConfig) inches() (width, height, margin float64) {
	paper := p.Paper
	if paper.Width == 0 {
		paper = pdfs.A4Size
	}
	return paper.WidthMM() / mmPerInch, paper.HeightMM() / mmPerInch, p.MarginMM / mmPerInch
}

// Converter is safe for concurrent use; each conversion runs in its own tab
type Converter struct {
	cfg           config
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewConverter starts the browser eagerly so a missing Chrome fails here
func NewConverter(opts ...Option) (*Converter, error) {
	cfg := config{timeout: 30 * time.Second}
	for _, o := range opts {
		o(&cfg)
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("no-first-run", true),
	)
	if cfg.chromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(cfg.chromePath))
	}
	if cfg.noSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("htmlpdf: starting browser: %w", err)
	}
	return &Converter{
		cfg:           cfg,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// Close stops the browser. Idempotent
func (c *Converter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.browserCancel()
	c.allocCancel()
	return nil
}

// ConvertHTML loads html into a blank tab and prints it
func (c *Converter) ConvertHTML(ctx context.Context, html string, pg PageConfig) ([]byte, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	if c.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.timeout)
		defer cancel()
	}
	tabCtx, tabCancel := chromedp.NewContext(c.browserCtx)
	defer tabCancel()
	// the tab lives under the browser context; tie it to the caller's deadline too
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	width, height, margin := pg.inches()
	var buf []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, _, err = page.PrintToPDF().
				WithPaperWidth(width).
				WithPaperHeight(height).
				WithMarginTop(margin).
				WithMarginRight(margin).
				WithMarginBottom(margin).
				WithMarginLeft(margin).
				WithPrintBackground(pg.PrintBackground).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("htmlpdf: conversion: %w", ctxErr)
		}
		return nil, fmt.Errorf("htmlpdf: conversion: %w", err)
	}
	return buf, nil
}
