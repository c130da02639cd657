package rw

import "net/http"

// StatusWriter records the status code and body size of a response
type StatusWriter struct {
	http.ResponseWriter // [Embedded]
	counter             *CountWriter
	status              int
}

func NewStatusWriter(w http.ResponseWriter) *StatusWriter {
	return &StatusWriter{
		ResponseWriter: w,
		counter:        NewCountWriter(w),
	}
}

func (sw *StatusWriter) WriteHeader(code int) {
	if sw.status == 0 {
		sw.status = code
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *StatusWriter) Write(p []byte) (int, error) {
	if sw.status == 0 {
		sw.status = http.StatusOK // implicit WriteHeader
	}
	return sw.counter.Write(p)
}

// Status returns 200 if nothing was written explicitly
func (sw *StatusWriter) Status() int {
	if sw.status == 0 {
		return http.StatusOK
	}
	return sw.status
}

func (sw *StatusWriter) BytesWritten() int64 {
	return sw.counter.BytesWritten()
}

// Unwrap lets http.ResponseController reach the underlying writer
func (sw *StatusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}
