// Package web serves the static front-end from a fixed directory. Every path
// is canonicalized and checked for containment in the root before any file
// is opened, and only common web asset types are served.
package web

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrNotFound means the path resolved inside the root but nothing is there.
	ErrNotFound = errors.New("file not found")
	// ErrForbidden means the path escapes the root or names a disallowed file.
	ErrForbidden = errors.New("access denied")
)

const indexFile = "index.html"

// contentTypes doubles as the extension allow-list.
var contentTypes = map[string]string{
	".html":        "text/html; charset=utf-8",
	".css":         "text/css; charset=utf-8",
	".js":          "application/javascript; charset=utf-8",
	".json":        "application/json; charset=utf-8",
	".txt":         "text/plain; charset=utf-8",
	".ico":         "image/x-icon",
	".png":         "image/png",
	".jpg":         "image/jpeg",
	".jpeg":        "image/jpeg",
	".gif":         "image/gif",
	".svg":         "image/svg+xml",
	".webmanifest": "application/manifest+json",
	".woff":        "font/woff",
	".woff2":       "font/woff2",
}

const defaultContentType = "application/octet-stream"

// Asset is a resolved file ready to be written to a response.
type Asset struct {
	Name        string
	Path        string
	ContentType string
	ModTime     time.Time
	Content     []byte
}

// Resolver maps URL paths to files under a canonical root.
type Resolver struct {
	root string
}

// NewResolver canonicalizes root. The directory must exist.
func NewResolver(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving public directory: %w", err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolving public directory: %w", err)
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return nil, fmt.Errorf("reading public directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("public directory %s is not a directory", canonical)
	}
	return &Resolver{root: canonical}, nil
}

// Root returns the canonical root directory.
func (r *Resolver) Root() string { return r.root }

// Resolve maps a URL path to an asset. It returns ErrForbidden for paths
// outside the root, dot-prefixed segments and disallowed extensions, and
// ErrNotFound for anything missing.
func (r *Resolver) Resolve(urlPath string) (*Asset, error) {
	rel := strings.TrimLeft(urlPath, "/")
	if rel == "" {
		rel = indexFile
	}

	// Join cleans ".." lexically; the check below catches anything that
	// left the root before the filesystem is touched.
	joined := filepath.Join(r.root, filepath.FromSlash(rel))
	if !r.contains(joined) {
		return nil, ErrForbidden
	}

	canonical, err := filepath.EvalSymlinks(joined)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	// Symlinks may point anywhere.
	if !r.contains(canonical) {
		return nil, ErrForbidden
	}

	info, err := os.Stat(canonical)
	if err != nil {
		return nil, ErrNotFound
	}
	if info.IsDir() {
		canonical, err = filepath.EvalSymlinks(filepath.Join(canonical, indexFile))
		if err != nil {
			return nil, ErrNotFound
		}
		if !r.contains(canonical) {
			return nil, ErrForbidden
		}
		if info, err = os.Stat(canonical); err != nil || info.IsDir() {
			return nil, ErrNotFound
		}
	}

	if hasDotSegment(r.root, canonical) {
		return nil, ErrForbidden
	}
	ext := strings.ToLower(filepath.Ext(canonical))
	contentType := defaultContentType
	if ext != "" {
		ct, ok := contentTypes[ext]
		if !ok {
			return nil, ErrForbidden
		}
		contentType = ct
	}

	content, err := os.ReadFile(canonical)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return &Asset{
		Name:        filepath.Base(canonical),
		Path:        canonical,
		ContentType: contentType,
		ModTime:     info.ModTime(),
		Content:     content,
	}, nil
}

// contains reports whether p is the root or a descendant of it.
func (r *Resolver) contains(p string) bool {
	rel, err := filepath.Rel(r.root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// hasDotSegment reports whether any path element below root starts with a
// dot, which covers dotfiles as well as files inside dot-directories.
func hasDotSegment(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return true
	}
	for _, seg := range strings.Split(rel, string(filepath.Separator)) {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
