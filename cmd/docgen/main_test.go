package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zeptools/gw-docgen/conf"
	"github.com/zeptools/gw-docgen/docstore"
	"github.com/zeptools/gw-docgen/documents"
	"github.com/zeptools/gw-docgen/pdfs"
	"github.com/zeptools/gw-docgen/render"
	"github.com/zeptools/gw-docgen/schedjobs"
)

const formJSON = `{
	"number": "OA-042",
	"date": "05/03/25",
	"customer_name": "John Doe",
	"customer_address1": "1 High Street",
	"customer_postcode": "L1 1AA",
	"items": [{"description": "Oak staircase", "amount": "1500"}]
}`

func setRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "config"), 0o755))
	old := appRoot
	appRoot = root
	t.Cleanup(func() { appRoot = old })
	return root
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "docgen dev\n", out.String())
}

func TestRenderFile(t *testing.T) {
	root := setRoot(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "config", conf.CompanyFile),
		[]byte(`{"name": "Oak & Ash Joinery", "number_prefix": "OA"}`), 0o600))
	formPath := filepath.Join(root, "job.json")
	require.NoError(t, os.WriteFile(formPath, []byte(formJSON), 0o600))

	renderType, renderOut = "invoice", filepath.Join(root, "out.pdf")
	t.Cleanup(func() { renderType, renderOut = "", "" })

	out, err := renderFile(context.Background(), formPath, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, renderOut, out)
	pdf, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}

func TestRenderFileDefaultName(t *testing.T) {
	root := setRoot(t)
	formPath := filepath.Join(root, "job.json")
	require.NoError(t, os.WriteFile(formPath, []byte(formJSON), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(root))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	out, err := renderFile(context.Background(), formPath, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "KM-Joinery-Quote.pdf", out, "default company, type quote")
	_, err = os.Stat(filepath.Join(root, out))
	assert.NoError(t, err)
}

func TestRenderFileErrors(t *testing.T) {
	root := setRoot(t)

	_, err := renderFile(context.Background(), filepath.Join(root, "missing.json"), zap.NewNop())
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(root, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"customer_name": "x"}`), 0o600))
	_, err = renderFile(context.Background(), bad, zap.NewNop())
	var verrs documents.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	good := filepath.Join(root, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(formJSON), 0o600))
	renderEngine = "latex"
	t.Cleanup(func() { renderEngine = "native" })
	_, err = renderFile(context.Background(), good, zap.NewNop())
	assert.Error(t, err)
}

func TestAdminCommands(t *testing.T) {
	root := setRoot(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := zap.NewNop()

	// the store clock lags so the stale record still counts until purged
	past := time.Now().Add(-2 * time.Hour)
	store := docstore.NewMemoryStore(func() time.Time { return past })
	doc := &documents.Document{Type: documents.TypeQuote, Number: "KMJ-1", CustomerName: "A", Company: documents.DefaultCompany()}
	require.NoError(t, store.Save(ctx, docstore.NewRecord(doc, []byte("%PDF"), past, time.Hour)))
	require.NoError(t, store.Save(ctx, docstore.NewRecord(doc, []byte("%PDF"), time.Now(), time.Hour)))

	core := &conf.Core{
		AppRoot:      root,
		Storage:      conf.StorageMemory,
		Logger:       logger,
		DocStore:     store,
		Renderer:     render.NewNativeRenderer("docgen", pdfs.PaperSize{}),
		JobScheduler: schedjobs.NewScheduler(ctx, logger),
	}
	core.JobScheduler.AddCronJob(docstore.NewPurgeJob(store, logger))
	commands := adminCommands(core)
	assert.Equal(t, []string{"purge", "reload-company", "stats"}, commands.Keys())

	run := func(name string) string {
		var out bytes.Buffer
		require.NoError(t, commands[name].Fn(ctx, nil, &out))
		return out.String()
	}

	assert.Contains(t, run("stats"), "documents: 2\n")
	assert.Equal(t, "purged 1 expired documents\n", run("purge"))
	stats := run("stats")
	assert.Contains(t, stats, "documents: 1\n")
	assert.Contains(t, stats, "engine: native\n")
	assert.Contains(t, stats, "cron jobs: 1\n")

	require.NoError(t, os.WriteFile(filepath.Join(root, "config", conf.CompanyFile), []byte(`{"name": "Oak & Ash"}`), 0o600))
	assert.Equal(t, "company profile reloaded: Oak & Ash\n", run("reload-company"))

	require.NoError(t, os.WriteFile(filepath.Join(root, "config", conf.CompanyFile), []byte(`{`), 0o600))
	err := commands["reload-company"].Fn(ctx, nil, &bytes.Buffer{})
	assert.Error(t, err)
	assert.True(t, strings.Contains(core.GetCompany().Name, "Oak"), "previous profile kept")
}
