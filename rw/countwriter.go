package rw

import "io"

// CountWriter passes writes through and tallies the bytes accepted by w.
// PDF sizes and response sizes in access logs come from it.
type CountWriter struct {
	w io.Writer
	n int64
}

func NewCountWriter(w io.Writer) *CountWriter {
	return &CountWriter{w: w}
}

func (cw *CountWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

func (cw *CountWriter) BytesWritten() int64 { return cw.n }
