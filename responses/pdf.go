package responses

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/zeptools/gw-docgen/sec"
)

func WritePDFBytesWithFilename(w http.ResponseWriter, filename string, PDFBytes []byte) {
	WritePDFResponseHeaders(w, filename, false, len(PDFBytes))
	if _, err := w.Write(PDFBytes); err != nil {
		zap.L().Error("writing PDF to response", zap.Error(err))
	}
}

// WritePDFResponseHeaders write HTTP response headers for PDF response. i.e. headers are frozen
func WritePDFResponseHeaders(w http.ResponseWriter, filename string, attachment bool, size int) {
	disposition := "inline"
	if attachment {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, filename))
	if size >= 0 {
		w.Header().Set("Content-Length", strconv.Itoa(size))
	}
	w.WriteHeader(http.StatusOK) // Response Header Sent & Frozen
}

// ServePDF writes PDFBytes with a content ETag, answering 304 when the client has it
func ServePDF(w http.ResponseWriter, r *http.Request, filename string, attachment bool, PDFBytes []byte) {
	etag := `"` + sec.HashHexSHA256(PDFBytes) + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "private, no-cache")
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	WritePDFResponseHeaders(w, filename, attachment, len(PDFBytes))
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(PDFBytes); err != nil {
		zap.L().Error("writing PDF to response", zap.Error(err))
	}
}

func etagMatches(header string, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == etag || candidate == "*" {
			return true
		}
	}
	return false
}
