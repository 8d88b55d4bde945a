package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getmockd/routemock/pkg/content"
	"github.com/getmockd/routemock/pkg/httputil"
	"github.com/getmockd/routemock/pkg/logging"
	"github.com/getmockd/routemock/pkg/route"
)

// OverrideHeader names the override that produced a response.
const OverrideHeader = "X-Routemock-Override"

// Handler serves mock responses for the routes of a registry.
type Handler struct {
	registry *route.Registry
	content  *content.Resolver
	log      *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the handler's logger.
func WithLogger(log *slog.Logger) Option {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// NewHandler creates a handler over registry.
func NewHandler(registry *route.Registry, resolver *content.Resolver, opts ...Option) *Handler {
	h := &Handler{registry: registry, content: resolver, log: logging.Nop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Match returns the route serving path and the captured parameters.
// A route whose pattern equals path wins over parameterised patterns;
// otherwise the first matching route in registry order is used.
func (h *Handler) Match(path string) (*route.Route, map[string]string) {
	routes := h.registry.All()
	for _, rt := range routes {
		if rt.Path == path {
			return rt, nil
		}
	}
	for _, rt := range routes {
		if params, ok := route.Match(rt.Path, path); ok {
			return rt, params
		}
	}
	return nil, nil
}

// HasMatch reports whether a route and method serve r.
func (h *Handler) HasMatch(r *http.Request) bool {
	rt, _ := h.Match(r.URL.Path)
	if rt == nil {
		return false
	}
	_, err := route.FindMethodByType(rt.Methods, r.Method)
	return err == nil
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt, params := h.Match(r.URL.Path)
	if rt == nil {
		httputil.WriteNotFound(w, fmt.Errorf("%w: %q", route.ErrRouteNotFound, r.URL.Path))
		return
	}
	method, err := route.FindMethodByType(rt.Methods, r.Method)
	if err != nil {
		httputil.WriteNotFound(w, err)
		return
	}

	for name, value := range params {
		r.SetPathValue(name, value)
	}
	r = r.WithContext(route.WithParams(r.Context(), params))

	attrs := content.MethodAttributes(method)
	if name, ok := h.registry.SelectedName(rt.Path, method.Type); ok {
		if o := method.FindOverride(name); o != nil {
			attrs = content.SelectedAttributes(method, o)
			w.Header().Set(OverrideHeader, o.Name)
		}
	}

	payload, err := h.content.Serve(r, rt.Path, attrs)
	switch {
	case errors.Is(err, content.ErrFixtureNotFound):
		h.log.Warn("fixture not found", "method", r.Method, "path", r.URL.Path, "error", err)
		httputil.WriteNotFound(w, err)
		return
	case err != nil:
		h.log.Error("failed to resolve content", "method", r.Method, "path", r.URL.Path, "error", err)
		httputil.WriteInternalError(w, err)
		return
	}

	h.log.Debug("served mock", "method", r.Method, "path", r.URL.Path, "route", rt.Path)
	httputil.WriteOK(w, payload)
}
