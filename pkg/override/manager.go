// Package override selects named response variants for route methods,
// resolves the content they serve and mirrors the selections to a store
// so they survive restarts.
package override

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/getmockd/routemock/pkg/content"
	"github.com/getmockd/routemock/pkg/logging"
	"github.com/getmockd/routemock/pkg/route"
	"github.com/getmockd/routemock/pkg/store"
)

// StorageKey is the store key holding the persisted selections.
const StorageKey = "overrides"

// Option configures a Manager.
type Option func(*Manager)

// WithStore sets the store selections are persisted to.
func WithStore(s store.Store) Option {
	return func(m *Manager) { m.store = s }
}

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// Manager owns override selection for a registry.
type Manager struct {
	registry *route.Registry
	content  *content.Resolver
	store    store.Store
	logger   *slog.Logger

	// mu serialises Select and replay so the snapshot written to the store
	// always matches the registry.
	mu sync.Mutex
}

// NewManager creates a manager over registry. Without WithStore selections
// live in memory only.
func NewManager(registry *route.Registry, resolver *content.Resolver, opts ...Option) *Manager {
	m := &Manager{
		registry: registry,
		content:  resolver,
		store:    store.NewDisabled(),
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Overridable returns the routes reduced to the methods that have overrides.
// Routes without any such method are left out.
func (m *Manager) Overridable() []*route.Route {
	var out []*route.Route
	for _, rt := range m.registry.All() {
		var methods []*route.Method
		for _, method := range rt.Methods {
			if method.Overridable() {
				methods = append(methods, method)
			}
		}
		if len(methods) > 0 {
			out = append(out, &route.Route{Path: rt.Path, Methods: methods})
		}
	}
	return out
}

// Selected returns one selection per method that has a selected override,
// in registry order.
func (m *Manager) Selected() []route.Selection {
	out := []route.Selection{}
	for _, rt := range m.registry.All() {
		for _, method := range rt.Methods {
			if o := method.SelectedOverride(); o != nil {
				out = append(out, route.Selection{RoutePath: rt.Path, MethodType: method.Type, Name: o.Name})
			}
		}
	}
	return out
}

// Select makes name the selected override of the route method. A name that
// matches no override clears the selection. The new state is written
// through to the store; a failed write is logged and does not fail Select.
func (m *Manager) Select(ctx context.Context, path, methodType, name string) (route.Selection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.selectLocked(path, methodType, name); err != nil {
		return route.Selection{}, err
	}
	if err := m.persistLocked(ctx); err != nil {
		m.logger.Error("failed to persist override selection",
			"path", path, "method", methodType, "name", name, "error", err)
	}

	m.logger.Info("override selected", "path", path, "method", methodType, "name", name)
	return route.Selection{RoutePath: path, MethodType: methodType, Name: name}, nil
}

func (m *Manager) selectLocked(path, methodType, name string) error {
	rt, err := m.registry.FindRouteByPath(path)
	if err != nil {
		return err
	}
	method, err := route.FindMethodByType(rt.Methods, methodType)
	if err != nil {
		return err
	}
	if !method.Overridable() {
		return fmt.Errorf("%w: %s %s has no overrides", route.ErrOverrideNotApplicable, route.NormalizeMethod(methodType), path)
	}

	selected := ""
	if method.FindOverride(name) != nil {
		selected = name
	}
	m.registry.SetSelected(rt.Path, method.Type, selected)
	return nil
}

// ResolveContent previews the content served for a route method. An empty
// or "default" overrideName uses the method's own attributes.
func (m *Manager) ResolveContent(ctx context.Context, rt *route.Route, methodType, overrideName string) (any, error) {
	attrs, err := Attributes(rt, methodType, overrideName)
	if err != nil {
		return nil, err
	}
	return m.content.Preview(ctx, rt.Path, attrs)
}

// Attributes returns the content attributes of the named override, or of
// the method itself for an empty or "default" name.
func Attributes(rt *route.Route, methodType, overrideName string) (content.Attributes, error) {
	method, err := route.FindMethodByType(rt.Methods, methodType)
	if err != nil {
		return content.Attributes{}, err
	}
	if route.IsDefaultOverride(overrideName) {
		return content.MethodAttributes(method), nil
	}
	o := method.FindOverride(overrideName)
	if o == nil {
		return content.Attributes{}, fmt.Errorf("%w: no override %q for %s %s",
			route.ErrOverrideNotApplicable, overrideName, route.NormalizeMethod(methodType), rt.Path)
	}
	return content.OverrideAttributes(o), nil
}

// ApplyExternalOverrides loads persisted selections at startup. A disabled
// or unopened store is ignored and an empty one is seeded with the current
// selections. Otherwise every persisted selection is replayed; entries that
// no longer match a route, method or override are logged and skipped.
// It returns the number of selections replayed.
func (m *Manager) ApplyExternalOverrides(ctx context.Context) (int, error) {
	if !m.store.Enabled() || !m.store.Initialized() {
		return 0, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	empty, err := m.store.IsEmpty(ctx)
	if err != nil {
		return 0, fmt.Errorf("check override store: %w", err)
	}
	if empty {
		if err := m.persistLocked(ctx); err != nil {
			return 0, fmt.Errorf("seed override store: %w", err)
		}
		m.logger.Debug("seeded override store")
		return 0, nil
	}

	raw, err := m.store.Get(ctx, StorageKey)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read persisted overrides: %w", err)
	}

	var selections []route.Selection
	if err := json.Unmarshal(raw, &selections); err != nil {
		m.logger.Warn("ignoring unreadable persisted overrides", "key", StorageKey, "error", err)
		return 0, nil
	}

	applied := 0
	for _, sel := range selections {
		if err := m.replayLocked(sel); err != nil {
			m.logger.Warn("skipping persisted override",
				"path", sel.RoutePath, "method", sel.MethodType, "name", sel.Name, "error", err)
			continue
		}
		applied++
	}
	m.logger.Info("applied persisted overrides", "count", applied, "skipped", len(selections)-applied)
	return applied, nil
}

// replayLocked applies one persisted selection. Unlike Select, a name that
// matches no override is an error rather than a reset.
func (m *Manager) replayLocked(sel route.Selection) error {
	rt, err := m.registry.FindRouteByPath(sel.RoutePath)
	if err != nil {
		return err
	}
	method, err := route.FindMethodByType(rt.Methods, sel.MethodType)
	if err != nil {
		return err
	}
	if method.FindOverride(sel.Name) == nil {
		return fmt.Errorf("%w: no override %q for %s %s",
			route.ErrOverrideNotApplicable, sel.Name, route.NormalizeMethod(sel.MethodType), sel.RoutePath)
	}
	m.registry.SetSelected(rt.Path, method.Type, sel.Name)
	return nil
}

func (m *Manager) persistLocked(ctx context.Context) error {
	if !m.store.Enabled() || !m.store.Initialized() {
		return nil
	}
	data, err := json.Marshal(m.Selected())
	if err != nil {
		return err
	}
	return m.store.Set(ctx, StorageKey, data)
}
