package routing

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/zeptools/gw-docgen/requests"
	"github.com/zeptools/gw-docgen/responses"
	"github.com/zeptools/gw-docgen/rw"
	"github.com/zeptools/gw-docgen/throttle"
)

// SecurityHeaders sets X-Content-Type-Options: nosniff on every response
var SecurityHeaders = HandlerWrapperFunc(func(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		inner.ServeHTTP(w, r)
	})
})

// HTMLPage presets the HTML content type; handlers writing something else override it
var HTMLPage = HandlerWrapperFunc(func(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", responses.ContentTypeHTML)
		inner.ServeHTTP(w, r)
	})
})

// AccessLog logs one line per request after it is served
func AccessLog(logger *zap.Logger) HandlerWrapper {
	return HandlerWrapperFunc(func(inner http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := rw.NewStatusWriter(w)
			inner.ServeHTTP(sw, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.Status()),
				zap.Int64("bytes", sw.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("client_ip", requests.GetClientIP(r)),
			)
		})
	})
}

// Throttle answers 429 once the client IP has spent its bucket in group
func Throttle(store *throttle.BucketStore[string], group string) HandlerWrapper {
	return HandlerWrapperFunc(func(inner http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := requests.GetClientIP(r)
			now := time.Now()
			if !store.Allow(group, ip, now) {
				if b, ok := store.GetBucket(group, ip); ok {
					secs := math.Ceil(b.RetryAfter(now).Seconds())
					w.Header().Set("Retry-After", strconv.Itoa(max(1, int(secs))))
				}
				responses.EncodeWriteJSON(w, http.StatusTooManyRequests, responses.Message{
					Type:    responses.MessageTypeError,
					Message: "too many requests",
					Code:    responses.CodeThrottled,
				})
				return
			}
			inner.ServeHTTP(w, r)
		})
	})
}
