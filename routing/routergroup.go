package routing

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// Router is satisfied by BaseRouter and RouteGroup
type Router interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request)
	Handle(pattern string, handler http.Handler, handlerWrappers ...HandlerWrapper)
	HandleFunc(pattern string, handleFunc func(http.ResponseWriter, *http.Request), handlerWrappers ...HandlerWrapper)
}

// RouteGroup registers routes under Prefix. Group wrappers run before route wrappers.
type RouteGroup struct {
	Router
	Prefix          string
	HandlerWrappers []HandlerWrapper
}

var _ Router = (*RouteGroup)(nil)

// Handle accepts "<METHOD> <subpath>" or "<subpath>" and prepends Prefix to the path part.
//
//	api := router.Group("/api", ...)
//	api.Handle("POST /documents", h)   // "POST /api/documents"
func (g *RouteGroup) Handle(subpattern string, handler http.Handler, handlerWrappers ...HandlerWrapper) {
	fullPattern := g.Prefix + subpattern
	if method, subpath, ok := strings.Cut(subpattern, " "); ok {
		fullPattern = method + " " + g.Prefix + subpath
	}
	if strings.Contains(fullPattern, "//") {
		panic(fmt.Sprintf("can't register router pattern %s", fullPattern))
	}
	g.Router.Handle(fullPattern, Chain(Chain(handler, handlerWrappers...), g.HandlerWrappers...))
}

func (g *RouteGroup) HandleFunc(subpattern string, handleFunc func(http.ResponseWriter, *http.Request), handlerWrappers ...HandlerWrapper) {
	g.Handle(subpattern, http.HandlerFunc(handleFunc), handlerWrappers...)
}

// Group makes a subgroup sharing the router; its wrappers run after the parent's
func (g *RouteGroup) Group(subPrefix string, batch func(*RouteGroup), handlerWrappers ...HandlerWrapper) *RouteGroup {
	subg := &RouteGroup{
		Router:          g.Router,
		Prefix:          g.Prefix + subPrefix,
		HandlerWrappers: slices.Concat(g.HandlerWrappers, handlerWrappers),
	}
	batch(subg)
	return subg
}
