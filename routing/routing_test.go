package routing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeptools/gw-docgen/throttle"
)

func tagWrapper(tag string, trail *[]string) HandlerWrapper {
	return HandlerWrapperFunc(func(inner http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*trail = append(*trail, tag)
			inner.ServeHTTP(w, r)
		})
	})
}

func TestRouteGroupOrder(t *testing.T) {
	var trail []string
	router := NewBaseRouter()
	router.Group("/api", func(api *RouteGroup) {
		api.Group("/docs", func(docs *RouteGroup) {
			docs.HandleFunc("GET /{id}", func(w http.ResponseWriter, r *http.Request) {
				trail = append(trail, "handler:"+r.PathValue("id"))
			}, tagWrapper("route", &trail))
		}, tagWrapper("sub", &trail))
	}, tagWrapper("group", &trail))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/docs/42", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"group", "sub", "route", "handler:42"}, trail)
}

func TestRouteGroupDoubleSlashPanics(t *testing.T) {
	router := NewBaseRouter()
	assert.Panics(t, func() {
		router.Group("/api/", func(g *RouteGroup) {
			g.HandleFunc("GET /x", func(http.ResponseWriter, *http.Request) {})
		})
	})
}

func TestRecoverWrapper(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), RecoverWrapper(zap.New(core)))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"type":"error","message":"internal server error","code":0}`, rec.Body.String())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "boom", logs.All()[0].ContextMap()["panic"])
}

func TestSecurityHeadersAndHTMLPage(t *testing.T) {
	router := NewBaseRouter()
	router.HandleFunc("GET /page", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<p>hi</p>"))
	}, HTMLPage)
	h := router.Wrapped(SecurityHeaders)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/page", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("hello"))
	}), AccessLog(zap.New(core)))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/documents", nil))
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, int64(http.StatusCreated), fields["status"])
	assert.Equal(t, int64(5), fields["bytes"])
	assert.Equal(t, "/documents", fields["path"])
}

func TestThrottle(t *testing.T) {
	store := throttle.NewBucketStore[string](context.Background(), time.Minute, time.Hour, zap.NewNop())
	store.SetBucketGroup("post", &throttle.BucketConf{Burst: 2, Increment: 1, Period: time.Minute})
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}), Throttle(store, "post"))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/documents", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.9")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}
