package routing

import "net/http"

type BaseRouter struct {
	*http.ServeMux
}

var _ Router = (*BaseRouter)(nil)

func NewBaseRouter() *BaseRouter {
	return &BaseRouter{ServeMux: http.NewServeMux()}
}

// Handle registers a route pattern
func (r *BaseRouter) Handle(pattern string, handler http.Handler, handlerWrappers ...HandlerWrapper) {
	r.ServeMux.Handle(pattern, Chain(handler, handlerWrappers...))
}

func (r *BaseRouter) HandleFunc(pattern string, handleFunc func(http.ResponseWriter, *http.Request), handlerWrappers ...HandlerWrapper) {
	r.Handle(pattern, http.HandlerFunc(handleFunc), handlerWrappers...)
}

// Group registers routes under a common prefix and wrappers
func (r *BaseRouter) Group(prefix string, batch func(*RouteGroup), handlerWrappers ...HandlerWrapper) *RouteGroup {
	return (&RouteGroup{Router: r}).Group(prefix, batch, handlerWrappers...)
}

// Wrapped returns the whole mux behind wrappers, for middleware that must also
// see unmatched requests (404/405)
func (r *BaseRouter) Wrapped(handlerWrappers ...HandlerWrapper) http.Handler {
	return Chain(r.ServeMux, handlerWrappers...)
}
