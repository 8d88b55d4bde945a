package route

import (
	"fmt"
	"sync"
)

// methodKey identifies a method within the registry.
type methodKey struct {
	path   string
	method string
}

func keyOf(path, methodType string) methodKey {
	return methodKey{path: path, method: NormalizeMethod(methodType)}
}

// Registry is the in-memory route table and override selection index.
// It is safe for concurrent use. Routes handed out by the registry are
// copies: mutating them does not affect the table.
type Registry struct {
	mu       sync.RWMutex
	routes   []*Route
	selected map[methodKey]string
}

// NewRegistry creates a registry holding routes.
func NewRegistry(routes ...*Route) *Registry {
	r := &Registry{}
	r.SetAll(routes)
	return r
}

// SetAll replaces the whole route table. The selection index is reseeded
// from the Selected flags of the incoming overrides; when more than one
// override of a method is flagged, the first one wins.
func (r *Registry) SetAll(routes []*Route) {
	selected := make(map[methodKey]string)
	for _, rt := range routes {
		for _, m := range rt.Methods {
			if o := m.SelectedOverride(); o != nil {
				selected[keyOf(rt.Path, m.Type)] = o.Name
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append([]*Route(nil), routes...)
	r.selected = selected
}

// All returns every route in registration order.
func (r *Registry) All() []*Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Route, 0, len(r.routes))
	for _, rt := range r.routes {
		out = append(out, r.cloneLocked(rt))
	}
	return out
}

// Len returns the number of registered routes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}

// FindRouteByPath returns the route whose path equals path exactly.
func (r *Registry) FindRouteByPath(path string) (*Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rt := range r.routes {
		if rt.Path == path {
			return r.cloneLocked(rt), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrRouteNotFound, path)
}

// SelectedName returns the name of the override selected for a route method.
func (r *Registry) SelectedName(path, methodType string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.selected[keyOf(path, methodType)]
	return name, ok
}

// SetSelected records name as the selected override of a route method.
// An empty name clears the selection. The caller checks that the route,
// method and override exist.
func (r *Registry) SetSelected(path, methodType, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := keyOf(path, methodType)
	if r.selected == nil {
		r.selected = make(map[methodKey]string)
	}
	if name == "" {
		delete(r.selected, k)
		return
	}
	r.selected[k] = name
}

// cloneLocked copies rt down to its overrides and fills in the Selected view.
// Payloads are shared; they are treated as immutable.
func (r *Registry) cloneLocked(rt *Route) *Route {
	out := &Route{Path: rt.Path, Methods: make([]*Method, 0, len(rt.Methods))}
	for _, m := range rt.Methods {
		mc := *m
		mc.Overrides = nil
		name, hasSelection := r.selected[keyOf(rt.Path, m.Type)]
		for _, o := range m.Overrides {
			oc := *o
			oc.Selected = hasSelection && o.Name == name
			mc.Overrides = append(mc.Overrides, &oc)
		}
		out.Methods = append(out.Methods, &mc)
	}
	return out
}

// FindMethodByType returns the method matching methodType case-insensitively.
func FindMethodByType(methods []*Method, methodType string) (*Method, error) {
	want := NormalizeMethod(methodType)
	for _, m := range methods {
		if NormalizeMethod(m.Type) == want {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrMethodNotFound, methodType)
}
