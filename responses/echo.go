package responses

import (
	"net/http"
	"strings"
	"time"

	"github.com/zeptools/gw-docgen/requests"
)

// EchoHandler reports what the server sees of the request, for client diagnostics.
// Extra adds handler-specific fields.
type EchoHandler struct {
	Message string
	Extra   func(r *http.Request) map[string]any
	Now     func() time.Time
}

func (h *EchoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	userAgent := r.UserAgent()
	if userAgent == "" {
		userAgent = "Unknown"
	}
	headers := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		headers[strings.ToLower(name)] = strings.Join(values, ", ")
	}
	payload := map[string]any{
		"status":    "ok",
		"message":   h.Message,
		"timestamp": now().UTC().Format("2006-01-02T15:04:05.000Z"),
		"url":       requests.FullURL(r),
		"method":    r.Method,
		"userAgent": userAgent,
		"headers":   headers,
	}
	if h.Extra != nil {
		for k, v := range h.Extra(r) {
			payload[k] = v
		}
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")
	EncodeWriteJSON(w, http.StatusOK, payload)
}
