package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zeptools/gw-docgen/conf"
	"github.com/zeptools/gw-docgen/documents"
	"github.com/zeptools/gw-docgen/render"
)

var (
	renderOut    string
	renderType   string
	renderEngine string
	renderChrome string
)

var renderCmd = &cobra.Command{
	Use:   "render <form.json>",
	Short: "Generate one PDF offline",
	Long: `Reads a document form as JSON (the body accepted by POST /api/documents)
and writes the PDF using the company profile in <root>/config/.company.json.

Example:
  docgen render job.json --type invoice -o invoice.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func runRender(cmd *cobra.Command, args []string) error {
	logger, err := conf.NewLogger(verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	out, err := renderFile(cmd.Context(), args[0], logger)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// renderFile writes the PDF and returns its path
func renderFile(ctx context.Context, formPath string, logger *zap.Logger) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	data, err := os.ReadFile(formPath)
	if err != nil {
		return "", err
	}
	var form documents.Form
	if err = json.Unmarshal(data, &form); err != nil {
		return "", fmt.Errorf("%s: %w", formPath, err)
	}
	if renderType != "" {
		form.Type = renderType
	}
	if form.Date == "" {
		form.Date = documents.DefaultDate(time.Now())
	}

	company, err := conf.LoadCompany(filepath.Join(appRoot, "config", conf.CompanyFile))
	if err != nil {
		return "", err
	}
	doc, err := form.ToDocument(company)
	if err != nil {
		return "", err
	}

	renderer, err := render.New(renderEngine, render.Config{
		Creator:    "docgen",
		ChromePath: renderChrome,
		Timeout:    time.Minute,
	}, logger)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := renderer.Close(); err != nil {
			logger.Warn("failed to close renderer", zap.Error(err))
		}
	}()

	pdf, err := renderer.Render(ctx, doc, render.Extras{})
	if err != nil {
		return "", err
	}
	out := renderOut
	if out == "" {
		out = doc.Filename()
	}
	if err = os.WriteFile(out, pdf, 0o644); err != nil {
		return "", err
	}
	logger.Info("document written", zap.String("path", out), zap.String("title", doc.Title()), zap.Int("bytes", len(pdf)))
	return out, nil
}
