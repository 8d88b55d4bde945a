package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/getmockd/routemock/pkg/events"
	"github.com/getmockd/routemock/pkg/httputil"
	"github.com/getmockd/routemock/pkg/route"
	"github.com/getmockd/routemock/pkg/throttle"
)

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, Health{Status: "ok", Version: a.version, Routes: a.registry.Len()})
}

// handleGetRoutes handles GET /admin/routes. A non-empty ?path= answers a
// one-element list.
func (a *API) handleGetRoutes(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		httputil.WriteOK(w, a.registry.All())
		return
	}

	rt, err := a.registry.FindRouteByPath(path)
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	httputil.WriteOK(w, []*route.Route{rt})
}

// handleGetContent handles GET /admin/routes/content.
func (a *API) handleGetContent(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	path, methodType := query.Get("path"), query.Get("type")
	if path == "" || methodType == "" {
		a.badRequest(w, r, errors.New("query parameters path and type are required"))
		return
	}

	rt, err := a.registry.FindRouteByPath(path)
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	payload, err := a.overrides.ResolveContent(r.Context(), rt, methodType, query.Get("overrideName"))
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	httputil.WriteOK(w, payload)
}

// handleUseOverride handles POST /admin/routes/use-override.
func (a *API) handleUseOverride(w http.ResponseWriter, r *http.Request) {
	var req UseOverrideRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		a.badRequest(w, r, err)
		return
	}
	if req.Path == "" || req.Type == "" {
		a.badRequest(w, r, errors.New("path and type are required"))
		return
	}

	sel, err := a.overrides.Select(r.Context(), req.Path, req.Type, req.Name)
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	a.events.Publish(events.TypeOverrideSelected, sel)
	a.metrics.ObserveSelection(sel)
	httputil.WriteOK(w, sel)
}

// handleUseThrottling handles POST /admin/routes/use-throttling. Only a
// malformed body fails; an empty body turns throttling off.
func (a *API) handleUseThrottling(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, httputil.MaxBodySize))
	if err != nil {
		a.badRequest(w, r, fmt.Errorf("failed to read request body: %w", err))
		return
	}

	var req UseThrottlingRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			a.badRequest(w, r, fmt.Errorf("invalid JSON: %w", err))
			return
		}
	}

	band, ok := a.throttle.ToggleByName(req.Name)
	if ok {
		a.log.Info("throttling enabled", "name", band.Name, "min", band.Values[0], "max", band.Values[1])
	} else {
		a.log.Info("throttling disabled", "requested", req.Name)
	}
	a.events.Publish(events.TypeThrottlingChanged, a.throttlingStatus().Current)
	httputil.WriteNoContent(w)
}

// handleGetConfig handles GET /admin/config.
func (a *API) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, a.options)
}

// handleGetOverridable handles GET /admin/overrides.
func (a *API) handleGetOverridable(w http.ResponseWriter, r *http.Request) {
	routes := a.overrides.Overridable()
	if routes == nil {
		routes = []*route.Route{}
	}
	httputil.WriteOK(w, routes)
}

// handleGetSelected handles GET /admin/overrides/selected.
func (a *API) handleGetSelected(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, a.overrides.Selected())
}

// handleGetThrottling handles GET /admin/throttling.
func (a *API) handleGetThrottling(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, a.throttlingStatus())
}

func (a *API) throttlingStatus() ThrottlingStatus {
	status := ThrottlingStatus{Bands: a.throttle.Bands()}
	if b, ok := a.throttle.Current(); ok {
		status.Current = &b
	}
	if status.Bands == nil {
		status.Bands = []throttle.Band{}
	}
	return status
}

// handleGetOpenAPI handles GET /admin/openapi.json.
func (a *API) handleGetOpenAPI(w http.ResponseWriter, r *http.Request) {
	doc, err := BuildOpenAPI(r.Context(), a.registry.All(), a.version)
	if err != nil {
		a.log.Error("failed to build OpenAPI document", "error", err)
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteOK(w, doc)
}

// badRequest answers 400 with err's message.
func (a *API) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	a.log.Debug("admin request rejected",
		"method", r.Method, "path", r.URL.Path, "request_id", RequestIDFrom(r.Context()), "error", err)
	httputil.WriteBadRequest(w, err)
}
