package responses

import (
	"net/http"

	"github.com/go-json-experiment/json"
	"go.uber.org/zap"
)

// WriteJSONBytes Write Already Encoded JSON Bytes into the Response
// JSONBytes, err := json.Marshal(payload any)
func WriteJSONBytes(w http.ResponseWriter, HTTPStatusCode int, JSONBytes []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatusCode) // Response Header Sent & Frozen
	if _, err := w.Write(JSONBytes); err != nil {
		zap.L().Error("writing JSON to response", zap.Error(err))
	}
}

// EncodeWriteJSON Encode & Write Payload as JSON Stream to the Response
func EncodeWriteJSON(w http.ResponseWriter, HTTPStatusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatusCode) // Response Header Sent & Frozen
	if err := json.MarshalWrite(w, payload); err != nil {
		zap.L().Error("writing JSON stream to response", zap.Error(err))
	}
}

// WriteSimpleErrorJSON is a helper func same as EncodeWriteJSON
// but wrapping a string message into a simple Message without app logic code
func WriteSimpleErrorJSON(w http.ResponseWriter, HTTPStatusCode int, msg string) {
	payload := Message{Type: MessageTypeError, Message: msg}
	EncodeWriteJSON(w, HTTPStatusCode, payload)
}

// WriteFieldErrorsJSON 422 with per-field messages
func WriteFieldErrorsJSON(w http.ResponseWriter, msg string, code int, fields map[string]string) {
	EncodeWriteJSON(w, http.StatusUnprocessableEntity, Message{
		Type:    MessageTypeError,
		Message: msg,
		Code:    code,
		Fields:  fields,
	})
}
