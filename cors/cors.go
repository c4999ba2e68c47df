// Package cors decides which cross-origin callers may read responses and
// emits the matching response headers.
//
// A request from a disallowed origin is not rejected: the permissive headers
// are simply omitted and the browser withholds the response from the caller.
package cors

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// Wildcard in the allow-list admits every origin. The request origin is
// echoed back because a literal "*" cannot be combined with credentials.
const Wildcard = "*"

const (
	allowMethods = "GET,POST,OPTIONS"
	allowHeaders = "Content-Type"
)

// Policy is the process-wide origin allow-list.
type Policy struct {
	wildcard bool
	allowed  map[string]struct{}
	handler  func(http.Handler) http.Handler
}

// NewPolicy builds a Policy from exact origins. Blank entries are ignored.
func NewPolicy(origins []string) *Policy {
	p := &Policy{allowed: make(map[string]struct{}, len(origins))}
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		switch origin {
		case "":
			continue
		case Wildcard:
			p.wildcard = true
		default:
			p.allowed[origin] = struct{}{}
		}
	}
	p.handler = cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			_, ok := p.Resolve(origin)
			return ok
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{allowHeaders},
		AllowCredentials: true,
		// Preflight writes the response so every OPTIONS gets the same 204.
		OptionsPassthrough: true,
	})
	return p
}

// ParseList splits a comma-separated allow-list as found in configuration.
func ParseList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// CrossOrigin reports whether any cross-origin caller is configured.
func (p *Policy) CrossOrigin() bool {
	return p.wildcard || len(p.allowed) > 0
}

// Resolve returns the value for Access-Control-Allow-Origin, or false when
// no CORS headers should be sent. An empty origin is a same-origin request.
func (p *Policy) Resolve(origin string) (string, bool) {
	if origin == "" {
		return "", false
	}
	if p.wildcard {
		return origin, true
	}
	if _, ok := p.allowed[origin]; ok {
		return origin, true
	}
	return "", false
}

// Middleware applies the CORS headers to every response. Allowed origins are
// echoed together with Vary: Origin and Access-Control-Allow-Credentials.
// Same-origin requests pass through untouched.
func (p *Policy) Middleware(next http.Handler) http.Handler {
	withCORS := p.handler(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Origin") == "" {
			next.ServeHTTP(w, r)
			return
		}
		withCORS.ServeHTTP(w, r)
	})
}

// Preflight answers OPTIONS for any path with 204 and no body. Origin
// headers are expected to have been applied by Middleware already.
func Preflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
	w.Header().Set("Access-Control-Allow-Methods", allowMethods)
	w.WriteHeader(http.StatusNoContent)
}
