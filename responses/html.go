package responses

import (
	"bytes"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/zeptools/gw-docgen/tpl"
)

const ContentTypeHTML = "text/html; charset=utf-8"

// WriteHTML executes the template fully before sending anything,
// so a template error still yields a clean 500
func WriteHTML(w http.ResponseWriter, HTTPStatusCode int, store *tpl.HTMLTemplateStore, key string, data any) {
	var buf bytes.Buffer
	if err := store.Execute(&buf, key, data); err != nil {
		zap.L().Error("executing template", zap.String("template", key), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", ContentTypeHTML)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(HTTPStatusCode) // Response Header Sent & Frozen
	if _, err := buf.WriteTo(w); err != nil {
		zap.L().Error("writing HTML to response", zap.Error(err))
	}
}
