package requests

import (
	"net/http"
	"strings"
)

func Scheme(req *http.Request) string {
	if req.TLS != nil {
		return "https"
	}
	if proto := req.Header.Get("X-Forwarded-Proto"); proto == "https" || proto == "http" {
		return proto
	}
	return "http"
}

// BaseURL e.g. "https://docs.example.com", without a trailing slash
func BaseURL(req *http.Request) string {
	return Scheme(req) + "://" + req.Host
}

func FullURL(req *http.Request) string {
	return BaseURL(req) + req.URL.RequestURI()
}

// AbsoluteURL joins path onto host ("https://x.io") when configured, else onto the request's base
func AbsoluteURL(req *http.Request, host string, path string) string {
	base := strings.TrimSuffix(host, "/")
	if base == "" {
		base = BaseURL(req)
	}
	return base + "/" + strings.TrimPrefix(path, "/")
}
