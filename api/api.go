// Package api routes HTTP requests to the credential, session, static and
// agent components and renders their outcomes as JSON.
package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-openapi/runtime/middleware"

	"github.com/jmcleod/agentgate/agent"
	"github.com/jmcleod/agentgate/cookie"
	"github.com/jmcleod/agentgate/cors"
	"github.com/jmcleod/agentgate/session"
	"github.com/jmcleod/agentgate/users"
	"github.com/jmcleod/agentgate/web"
)

//go:embed openapi.yaml
var openapiSpec []byte

// Deps are the components the dispatcher routes to. All are required.
type Deps struct {
	Users    *users.Store
	Sessions session.Store
	Cookies  *cookie.Policy
	Origins  *cors.Policy
	Static   *web.Resolver
	Agent    agent.Client
}

// API holds the dependencies needed by the HTTP handlers.
type API struct {
	users    *users.Store
	sessions session.Store
	cookies  *cookie.Policy
	origins  *cors.Policy
	static   *web.Resolver
	agent    agent.Client

	logger      *slog.Logger
	events      *eventLogger
	alertFn     AlertFunc
	csp         string
	spaFallback bool
}

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for request and event logs.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.logger = logger
	}
}

// WithAlertFunc registers a callback for login and upstream failure spikes.
func WithAlertFunc(fn AlertFunc) Option {
	return func(a *API) {
		a.alertFn = fn
	}
}

// WithContentSecurityPolicy sets the Content-Security-Policy header value.
// An empty policy omits the header.
func WithContentSecurityPolicy(csp string) Option {
	return func(a *API) {
		a.csp = csp
	}
}

// WithSPAFallback serves index.html for missing extensionless static paths.
func WithSPAFallback(enabled bool) Option {
	return func(a *API) {
		a.spaFallback = enabled
	}
}

// New creates a new API instance.
func New(d Deps, opts ...Option) *API {
	a := &API{
		users:    d.Users,
		sessions: d.Sessions,
		cookies:  d.Cookies,
		origins:  d.Origins,
		static:   d.Static,
		agent:    d.Agent,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	a.events = newEventLogger(a.logger)
	if a.alertFn != nil {
		a.events.metrics = newMetricsCollector(a.alertFn)
	}
	return a
}

// Handler returns the complete gateway handler: middleware plus routes.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(a.logRequests)
	r.Use(chimw.Recoverer)
	r.Use(chimw.GetHead)
	r.Use(a.securityHeaders)
	r.Use(a.origins.Middleware)
	r.Use(preflight)
	a.mount(r)
	return r
}

// Router returns a chi.Router with only the routes registered.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	a.mount(r)
	return r
}

func (a *API) mount(r chi.Router) {
	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/api/session*", a.SessionStatus)
	r.Post("/api/login", a.Login)
	r.Post("/api/logout", a.Logout)
	r.With(a.RequireSession).Post("/api/query", a.Query)

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})
	r.Method(http.MethodGet, "/api/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/api/openapi.yaml",
		Path:    "api/docs",
	}, http.HandlerFunc(notFound)))
	r.Get("/api*", notFound)

	webOpts := []web.Option{web.WithErrorFunc(staticError)}
	if a.spaFallback {
		webOpts = append(webOpts, web.WithSPAFallback())
	}
	r.Get("/*", web.Handler(a.static, webOpts...).ServeHTTP)
}

// preflight answers every OPTIONS request before routing.
func preflight(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			cors.Preflight(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}

// methodNotAllowed keeps unmatched POSTs as 404; other methods get 405.
func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		notFound(w, r)
		return
	}
	w.Header().Set("Allow", "GET, HEAD, POST, OPTIONS")
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
