// Package docs serves the document form, previews, PDFs, share links and the JSON API.
package docs

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zeptools/gw-docgen/docstore"
	"github.com/zeptools/gw-docgen/documents"
	"github.com/zeptools/gw-docgen/locks/keyonlylocks"
	"github.com/zeptools/gw-docgen/render"
	"github.com/zeptools/gw-docgen/requests"
	"github.com/zeptools/gw-docgen/routing"
	"github.com/zeptools/gw-docgen/share"
	"github.com/zeptools/gw-docgen/tpl"
)

//go:embed templates
var templatesFS embed.FS

const maxBodyBytes = 1 << 20

// errBusy is returned while another request renders the same document number
var errBusy = errors.New("document is already being generated")

type Deps struct {
	Store     docstore.Store
	Renderer  render.Renderer
	Tokens    *share.Tokens            // nil disables share links
	Company   func() documents.Company // current profile, may change between requests
	Locks     *sync.Map                // in-flight renders, keyed by type and number
	Host      string                   // public base URL, "" = taken from the request
	Retention time.Duration
	EmbedQR   bool // print a QR code of the share link on generated documents
	Logger    *zap.Logger
}

type Handler struct {
	Deps
	pages *tpl.HTMLTemplateStore
	now   func() time.Time
}

func NewHandler(deps Deps) (*Handler, error) {
	if deps.Store == nil || deps.Renderer == nil || deps.Company == nil {
		return nil, errors.New("docs: store, renderer and company are required")
	}
	if deps.Locks == nil {
		deps.Locks = &sync.Map{}
	}
	deps.Logger = deps.Logger.Named("docs")
	pages := tpl.NewHTMLTemplateStore(deps.Logger, render.Funcs())
	if err := pages.LoadBaseTemplatesFS(templatesFS, "templates"); err != nil {
		return nil, err
	}
	for _, page := range []string{pageIndex, pagePreview, pageShared, pageMessage} {
		if err := pages.Combine(page, "layout", page); err != nil {
			return nil, err
		}
	}
	return &Handler{Deps: deps, pages: pages, now: time.Now}, nil
}

// Routes registers every endpoint. postWrappers guard the routes that render, e.g. a throttle
func (h *Handler) Routes(postWrappers ...routing.HandlerWrapper) http.Handler {
	router := routing.NewBaseRouter()

	router.Group("", func(pages *routing.RouteGroup) {
		pages.HandleFunc("GET /{$}", h.index)
		pages.HandleFunc("POST /documents", h.createFromForm, postWrappers...)
		pages.HandleFunc("GET /documents/{id}", h.preview)
		pages.HandleFunc("GET /s/{token}", h.sharedView)
	}, routing.HTMLPage)

	router.HandleFunc("GET /documents/{id}/pdf", h.pdf)
	router.HandleFunc("GET /s/{token}/pdf", h.sharedPDF)

	router.Group("/api", func(api *routing.RouteGroup) {
		api.HandleFunc("POST /documents", h.apiCreate, postWrappers...)
		api.HandleFunc("POST /documents/render", h.apiRender, postWrappers...)
		api.HandleFunc("GET /documents/defaults", h.apiDefaults)
		api.Handle("GET /mobile-test", h.mobileTest())
	})

	router.HandleFunc("GET /healthz", h.healthz)

	return router.Wrapped(
		routing.RecoverWrapper(h.Logger),
		routing.SecurityHeaders,
		routing.AccessLog(h.Logger),
	)
}

func lockKey(doc *documents.Document) string {
	return string(doc.Type) + ":" + doc.Number
}

// renderLocked renders doc unless the same number is in flight
func (h *Handler) renderLocked(ctx context.Context, doc *documents.Document, extras render.Extras) ([]byte, error) {
	release, ok := keyonlylocks.TryLock(h.Locks, lockKey(doc))
	if !ok {
		return nil, errBusy
	}
	defer release()

	pdf, err := h.Renderer.Render(ctx, doc, extras)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", doc.Title(), err)
	}
	return pdf, nil
}

// generate renders and stores doc
func (h *Handler) generate(r *http.Request, doc *documents.Document) (*docstore.Record, error) {
	rec := docstore.NewRecord(doc, nil, h.now(), h.Retention)
	var extras render.Extras
	if h.EmbedQR {
		link, err := h.shareURL(r, rec)
		if err != nil {
			return nil, err
		}
		extras.ShareURL = link
	}
	pdf, err := h.renderLocked(r.Context(), doc, extras)
	if err != nil {
		return nil, err
	}
	rec.PDF = pdf
	if err = h.Store.Save(r.Context(), rec); err != nil {
		return nil, fmt.Errorf("save %s: %w", doc.Title(), err)
	}
	h.Logger.Info("document generated",
		zap.String("id", rec.ID),
		zap.String("type", string(rec.Type)),
		zap.String("number", rec.Number),
		zap.Int("bytes", len(pdf)))
	return rec, nil
}

// shareURL is "" when share links are disabled
func (h *Handler) shareURL(r *http.Request, rec *docstore.Record) (string, error) {
	if h.Tokens == nil {
		return "", nil
	}
	token, _, err := h.Tokens.IssueToken(rec.ID, rec.Type)
	if err != nil {
		return "", err
	}
	return requests.AbsoluteURL(r, h.Host, "/s/"+token), nil
}

// lookup loads a record by the {id} path value
func (h *Handler) lookup(r *http.Request) (*docstore.Record, error) {
	id := r.PathValue("id")
	if !docstore.ValidID(id) {
		return nil, docstore.ErrNotFound
	}
	return h.Store.Get(r.Context(), id)
}

// lookupShared loads the record a {token} points at
func (h *Handler) lookupShared(r *http.Request) (*docstore.Record, error) {
	if h.Tokens == nil {
		return nil, docstore.ErrNotFound
	}
	claims, err := h.Tokens.ParseToken(r.PathValue("token"))
	if err != nil {
		return nil, docstore.ErrNotFound
	}
	if !docstore.ValidID(claims.Subject) {
		return nil, docstore.ErrNotFound
	}
	return h.Store.Get(r.Context(), claims.Subject)
}
