package docs

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-json-experiment/json"
	"go.uber.org/zap"

	"github.com/zeptools/gw-docgen/docstore"
	"github.com/zeptools/gw-docgen/documents"
	"github.com/zeptools/gw-docgen/render"
	"github.com/zeptools/gw-docgen/requests"
	"github.com/zeptools/gw-docgen/responses"
	"github.com/zeptools/gw-docgen/share"
)

type createdResponse struct {
	ID          string        `json:"id"`
	Type        string        `json:"type"`
	Number      string        `json:"number"`
	Filename    string        `json:"filename"`
	PDFURL      string        `json:"pdf_url"`
	DownloadURL string        `json:"download_url"`
	ShareURL    string        `json:"share_url,omitempty"`
	WhatsAppURL string        `json:"whatsapp_url,omitempty"`
	Share       share.Payload `json:"share"`
	ExpiresAt   time.Time     `json:"expires_at,omitzero"`
}

type defaultsResponse struct {
	Type   string `json:"type"`
	Number string `json:"number"`
	Date   string `json:"date"`
}

// decodeForm reads a JSON form. On false the error response is already written
func decodeForm(w http.ResponseWriter, r *http.Request) (documents.Form, bool) {
	var form documents.Form
	if err := json.UnmarshalRead(http.MaxBytesReader(w, r.Body, maxBodyBytes), &form); err != nil {
		responses.EncodeWriteJSON(w, http.StatusBadRequest, responses.Message{
			Type:    responses.MessageTypeError,
			Message: "request body must be a JSON document form",
			Code:    responses.CodeMalformedBody,
		})
		return form, false
	}
	return form, true
}

// toDocument writes a 422 with field messages when the form is invalid
func toDocument(w http.ResponseWriter, form documents.Form, company documents.Company) (*documents.Document, bool) {
	doc, err := form.ToDocument(company)
	if err == nil {
		return doc, true
	}
	var verrs documents.ValidationErrors
	if errors.As(err, &verrs) {
		responses.WriteFieldErrorsJSON(w, "invalid document", responses.CodeValidation, verrs.Map())
		return nil, false
	}
	responses.WriteFieldErrorsJSON(w, err.Error(), responses.CodeValidation, nil)
	return nil, false
}

// fillDefaults numbers the document from the store sequence and dates it today when omitted
func (h *Handler) fillDefaults(ctx context.Context, form *documents.Form, company documents.Company) error {
	if form.Date == "" {
		form.Date = documents.DefaultDate(h.now())
	}
	if form.Number != "" {
		return nil
	}
	docType, err := documents.ParseType(form.Type)
	if err != nil {
		return nil // reported by validation
	}
	form.Number, err = docstore.NumberFor(ctx, h.Store, company, docType)
	return err
}

func (h *Handler) writeGenerateError(w http.ResponseWriter, doc *documents.Document, err error) {
	if errors.Is(err, errBusy) {
		responses.EncodeWriteJSON(w, http.StatusConflict, responses.Message{
			Type:    responses.MessageTypeError,
			Message: err.Error(),
			Code:    responses.CodeBusy,
		})
		return
	}
	h.Logger.Error("generating document failed", zap.String("number", doc.Number), zap.Error(err))
	responses.EncodeWriteJSON(w, http.StatusInternalServerError, responses.Message{
		Type:    responses.MessageTypeError,
		Message: "the PDF could not be generated",
		Code:    responses.CodeRenderFailed,
	})
}

func (h *Handler) apiCreate(w http.ResponseWriter, r *http.Request) {
	form, ok := decodeForm(w, r)
	if !ok {
		return
	}
	company := h.Company()
	if err := h.fillDefaults(r.Context(), &form, company); err != nil {
		h.Logger.Error("allocating document number failed", zap.Error(err))
		responses.EncodeWriteJSON(w, http.StatusInternalServerError, responses.Message{
			Type:    responses.MessageTypeError,
			Message: "could not allocate a document number",
			Code:    responses.CodeInternal,
		})
		return
	}
	doc, ok := toDocument(w, form, company)
	if !ok {
		return
	}
	rec, err := h.generate(r, doc)
	if err != nil {
		h.writeGenerateError(w, doc, err)
		return
	}

	pdfPath := "/documents/" + rec.ID + "/pdf"
	resp := createdResponse{
		ID:          rec.ID,
		Type:        string(rec.Type),
		Number:      rec.Number,
		Filename:    rec.Filename,
		PDFURL:      requests.AbsoluteURL(r, h.Host, pdfPath),
		DownloadURL: requests.AbsoluteURL(r, h.Host, pdfPath+"?download=1"),
		ExpiresAt:   rec.ExpiresAt,
	}
	link, err := h.shareURL(r, rec)
	if err != nil {
		h.Logger.Warn("issuing share link failed", zap.String("id", rec.ID), zap.Error(err))
	}
	resp.ShareURL = link
	resp.Share = share.NewPayload(doc, link)
	if link != "" {
		resp.WhatsAppURL = share.WhatsAppURL(resp.Share.Message())
	}
	w.Header().Set("Location", "/documents/"+rec.ID)
	responses.EncodeWriteJSON(w, http.StatusCreated, resp)
}

// apiRender returns the PDF without storing anything
func (h *Handler) apiRender(w http.ResponseWriter, r *http.Request) {
	form, ok := decodeForm(w, r)
	if !ok {
		return
	}
	if form.Date == "" {
		form.Date = documents.DefaultDate(h.now())
	}
	doc, ok := toDocument(w, form, h.Company())
	if !ok {
		return
	}
	pdf, err := h.renderLocked(r.Context(), doc, render.Extras{})
	if err != nil {
		h.writeGenerateError(w, doc, err)
		return
	}
	responses.WritePDFBytesWithFilename(w, doc.Filename(), pdf)
}

func (h *Handler) apiDefaults(w http.ResponseWriter, r *http.Request) {
	docType, err := documents.ParseType(r.URL.Query().Get("type"))
	if err != nil {
		responses.EncodeWriteJSON(w, http.StatusBadRequest, responses.Message{
			Type:    responses.MessageTypeError,
			Message: err.Error(),
			Code:    responses.CodeUnsupportedType,
		})
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, defaultsResponse{
		Type:   string(docType),
		Number: documents.DefaultNumber(h.Company().NumberPrefix, nil),
		Date:   documents.DefaultDate(h.now()),
	})
}

func (h *Handler) mobileTest() http.Handler {
	return &responses.EchoHandler{
		Message: "Mobile API test endpoint is working",
		Extra: func(r *http.Request) map[string]any {
			return map[string]any{"isMobile": share.IsMobileUserAgent(r.UserAgent())}
		},
	}
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	count, err := h.Store.Count(ctx)
	if err != nil {
		h.Logger.Warn("health check failed", zap.Error(err))
		responses.EncodeWriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"renderer":  h.Renderer.Name(),
		"documents": count,
	})
}
