package api

import (
	"net/http"
	"strings"
)

// securityHeaders sets standard security response headers on every
// response. The Swagger UI pulls its assets from a CDN, so the docs pages
// go out without a Content-Security-Policy.
func (a *API) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		if a.csp != "" && !strings.HasPrefix(r.URL.Path, "/api/docs") {
			h.Set("Content-Security-Policy", a.csp)
		}
		if requestIsSecure(r) {
			h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}
