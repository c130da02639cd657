package docs

import (
	"encoding/base64"
	"errors"
	"html/template"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/zeptools/gw-docgen/docstore"
	"github.com/zeptools/gw-docgen/documents"
	"github.com/zeptools/gw-docgen/responses"
	"github.com/zeptools/gw-docgen/share"
)

const (
	pageIndex   = "index"
	pagePreview = "preview"
	pageShared  = "shared"
	pageMessage = "message"

	qrPixels = 220
)

type page struct {
	Title   string
	Company documents.Company
}

type indexView struct {
	page
	Type   documents.Type
	Form   documents.Form
	Errors map[string]string
	Flash  string
}

type previewView struct {
	page
	Record      *docstore.Record
	Doc         *documents.Document
	PDFURL      string
	DownloadURL string
	EditURL     string
	ShareURL    string
	WhatsAppURL string
	Share       share.Payload
	QRCode      template.URL
	Mobile      bool
}

type messageView struct {
	page
	Message string
}

func (h *Handler) newPage(title string) page {
	return page{Title: title, Company: h.Company()}
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	docType, err := documents.ParseType(r.URL.Query().Get("type"))
	if err != nil {
		docType = documents.TypeQuote
	}
	view := h.indexDefaults(docType)
	// prefilled from a preview's Edit link
	if q := r.URL.Query(); q.Get("number") != "" {
		view.Form = documents.FormFromValues(q)
		view.Form.Type = string(docType)
		if len(view.Form.Items) == 0 {
			view.Form.Items = []documents.FormItem{{}}
		}
	}
	responses.WriteHTML(w, http.StatusOK, h.pages, pageIndex, view)
}

func (h *Handler) indexDefaults(docType documents.Type) indexView {
	p := h.newPage("New " + docType.Title())
	return indexView{
		page: p,
		Type: docType,
		Form: documents.Form{
			Type:   string(docType),
			Number: documents.DefaultNumber(p.Company.NumberPrefix, nil),
			Date:   documents.DefaultDate(h.now()),
			Items:  []documents.FormItem{{}},
		},
	}
}

// redisplay renders the form again with what the user typed
func (h *Handler) redisplay(w http.ResponseWriter, status int, form documents.Form, errs map[string]string, flash string) {
	docType, err := documents.ParseType(form.Type)
	if err != nil {
		docType = documents.TypeQuote
	}
	if len(form.Items) == 0 {
		form.Items = []documents.FormItem{{}}
	}
	responses.WriteHTML(w, status, h.pages, pageIndex, indexView{
		page:   h.newPage("New " + docType.Title()),
		Type:   docType,
		Form:   form,
		Errors: errs,
		Flash:  flash,
	})
}

func (h *Handler) createFromForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.message(w, http.StatusBadRequest, "The form could not be read.")
		return
	}
	form := documents.FormFromValues(r.PostForm)
	doc, err := form.ToDocument(h.Company())
	var verrs documents.ValidationErrors
	if errors.As(err, &verrs) {
		h.redisplay(w, http.StatusBadRequest, form, verrs.Map(), "Please correct the highlighted fields.")
		return
	}
	if err != nil {
		h.redisplay(w, http.StatusBadRequest, form, nil, err.Error())
		return
	}

	rec, err := h.generate(r, doc)
	switch {
	case errors.Is(err, errBusy):
		h.redisplay(w, http.StatusConflict, form, nil, "This "+doc.Type.String()+" is already being generated. Try again in a moment.")
		return
	case err != nil:
		h.Logger.Error("generating document failed", zap.String("number", doc.Number), zap.Error(err))
		h.redisplay(w, http.StatusInternalServerError, form, nil, "The PDF could not be generated.")
		return
	}
	http.Redirect(w, r, "/documents/"+rec.ID, http.StatusSeeOther)
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.recordOr404(w, r, h.lookup)
	if !ok {
		return
	}
	pdfURL := "/documents/" + rec.ID + "/pdf"
	view := previewView{
		page:        h.newPage(rec.Document.Title()),
		Record:      rec,
		Doc:         rec.Document,
		PDFURL:      pdfURL,
		DownloadURL: pdfURL + "?download=1",
		EditURL:     "/?" + documents.FormFromDocument(rec.Document).Values().Encode(),
		Mobile:      share.IsMobileUserAgent(r.UserAgent()),
	}
	link, err := h.shareURL(r, rec)
	if err != nil {
		h.Logger.Warn("issuing share link failed", zap.String("id", rec.ID), zap.Error(err))
	}
	view.Share = share.NewPayload(rec.Document, link)
	if link != "" {
		view.ShareURL = link
		view.WhatsAppURL = share.WhatsAppURL(view.Share.Message())
		if png, err := share.QRCodePNG(link, qrPixels); err == nil {
			view.QRCode = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
		}
	}
	responses.WriteHTML(w, http.StatusOK, h.pages, pagePreview, view)
}

func (h *Handler) sharedView(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.recordOr404(w, r, h.lookupShared)
	if !ok {
		return
	}
	pdfURL := "/s/" + url.PathEscape(r.PathValue("token")) + "/pdf"
	responses.WriteHTML(w, http.StatusOK, h.pages, pageShared, previewView{
		page:        h.newPage(rec.Document.Title()),
		Record:      rec,
		Doc:         rec.Document,
		PDFURL:      pdfURL,
		DownloadURL: pdfURL + "?download=1",
		Mobile:      share.IsMobileUserAgent(r.UserAgent()),
	})
}

func (h *Handler) pdf(w http.ResponseWriter, r *http.Request) {
	h.servePDF(w, r, h.lookup)
}

func (h *Handler) sharedPDF(w http.ResponseWriter, r *http.Request) {
	h.servePDF(w, r, h.lookupShared)
}

func (h *Handler) servePDF(w http.ResponseWriter, r *http.Request, lookup func(*http.Request) (*docstore.Record, error)) {
	rec, err := lookup(r)
	if errors.Is(err, docstore.ErrNotFound) {
		responses.EncodeWriteJSON(w, http.StatusNotFound, responses.Message{
			Type:    responses.MessageTypeError,
			Message: "document not found",
			Code:    responses.CodeNotFound,
		})
		return
	}
	if err != nil {
		h.Logger.Error("loading document failed", zap.Error(err))
		responses.WriteSimpleErrorJSON(w, http.StatusInternalServerError, "internal server error")
		return
	}
	responses.ServePDF(w, r, rec.Filename, r.URL.Query().Get("download") == "1", rec.PDF)
}

// recordOr404 writes the not-found or error page itself when ok is false
func (h *Handler) recordOr404(w http.ResponseWriter, r *http.Request, lookup func(*http.Request) (*docstore.Record, error)) (*docstore.Record, bool) {
	rec, err := lookup(r)
	if errors.Is(err, docstore.ErrNotFound) {
		h.message(w, http.StatusNotFound, "This document does not exist or has expired.")
		return nil, false
	}
	if err != nil {
		h.Logger.Error("loading document failed", zap.Error(err))
		h.message(w, http.StatusInternalServerError, "The document could not be loaded.")
		return nil, false
	}
	return rec, true
}

func (h *Handler) message(w http.ResponseWriter, status int, msg string) {
	responses.WriteHTML(w, status, h.pages, pageMessage, messageView{
		page:    h.newPage(http.StatusText(status)),
		Message: msg,
	})
}
