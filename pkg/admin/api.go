package admin

import (
	"log/slog"
	"net/http"

	"github.com/getmockd/routemock/pkg/config"
	"github.com/getmockd/routemock/pkg/events"
	"github.com/getmockd/routemock/pkg/logging"
	"github.com/getmockd/routemock/pkg/metrics"
	"github.com/getmockd/routemock/pkg/override"
	"github.com/getmockd/routemock/pkg/route"
	"github.com/getmockd/routemock/pkg/throttle"
)

// Prefix is the path every admin endpoint lives under.
const Prefix = "/admin"

// API serves the admin endpoints.
type API struct {
	registry  *route.Registry
	overrides *override.Manager
	throttle  *throttle.Controller
	options   config.Options
	events    *events.Hub
	metrics   *metrics.Metrics
	log       *slog.Logger
	version   string
}

// Option configures an API.
type Option func(*API)

// WithLogger sets the API's logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *API) {
		if log != nil {
			a.log = log
		}
	}
}

// WithEvents publishes changes to hub and serves it at /admin/events.
func WithEvents(hub *events.Hub) Option {
	return func(a *API) { a.events = hub }
}

// WithMetrics records override selections in m and serves it at /admin/metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *API) { a.metrics = m }
}

// WithVersion sets the version reported by /admin/health.
func WithVersion(v string) Option {
	return func(a *API) { a.version = v }
}

// New creates the admin API.
func New(registry *route.Registry, overrides *override.Manager, tc *throttle.Controller, options config.Options, opts ...Option) *API {
	a := &API{
		registry:  registry,
		overrides: overrides,
		throttle:  tc,
		options:   options,
		log:       logging.Nop(),
		version:   "dev",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handler returns the admin endpoints wrapped in the admin middleware.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	a.registerRoutes(mux)
	return Chain(mux, RequestID, AccessLog(a.log), Recover(a.log))
}

// registerRoutes sets up all API routes.
func (a *API) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET "+Prefix+"/health", a.handleHealth)

	mux.HandleFunc("GET "+Prefix+"/routes", a.handleGetRoutes)
	mux.HandleFunc("GET "+Prefix+"/routes/content", a.handleGetContent)
	mux.HandleFunc("POST "+Prefix+"/routes/use-override", a.handleUseOverride)
	mux.HandleFunc("POST "+Prefix+"/routes/use-throttling", a.handleUseThrottling)

	mux.HandleFunc("GET "+Prefix+"/config", a.handleGetConfig)
	mux.HandleFunc("GET "+Prefix+"/overrides", a.handleGetOverridable)
	mux.HandleFunc("GET "+Prefix+"/overrides/selected", a.handleGetSelected)
	mux.HandleFunc("GET "+Prefix+"/throttling", a.handleGetThrottling)
	mux.HandleFunc("GET "+Prefix+"/openapi.json", a.handleGetOpenAPI)

	if a.metrics != nil {
		mux.Handle("GET "+Prefix+"/metrics", a.metrics.Handler())
	}
	if a.events != nil {
		mux.Handle("GET "+Prefix+"/events", a.events)
	}
}
