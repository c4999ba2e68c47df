package web

import (
	"bytes"
	"errors"
	"net/http"
	"path"
)

// Option configures the HTTP handler.
type Option func(*handler)

// WithSPAFallback serves the root index.html for missing extensionless paths
// so client-side routes survive a reload.
func WithSPAFallback() Option {
	return func(h *handler) {
		h.spaFallback = true
	}
}

// ErrorFunc renders a resolver error. The default writes plain text.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

// WithErrorFunc customizes error rendering.
func WithErrorFunc(fn ErrorFunc) Option {
	return func(h *handler) {
		h.onError = fn
	}
}

type handler struct {
	resolver    *Resolver
	spaFallback bool
	onError     ErrorFunc
}

// Handler returns an http.Handler that serves assets from the resolver.
func Handler(resolver *Resolver, opts ...Option) http.Handler {
	h := &handler{resolver: resolver, onError: defaultError}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	asset, err := h.resolver.Resolve(r.URL.Path)
	if errors.Is(err, ErrNotFound) && h.spaFallback && path.Ext(r.URL.Path) == "" {
		asset, err = h.resolver.Resolve("/")
	}
	if err != nil {
		h.onError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", asset.ContentType)
	http.ServeContent(w, r, asset.Name, asset.ModTime, bytes.NewReader(asset.Content))
}

func defaultError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrForbidden) {
		http.Error(w, ErrForbidden.Error(), http.StatusForbidden)
		return
	}
	http.Error(w, ErrNotFound.Error(), http.StatusNotFound)
}
