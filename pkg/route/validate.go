package route

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the uniqueness invariants of a route table: paths are
// unique, method types are unique per route (case-insensitively), override
// names are unique per method and at most one override per method is
// flagged as selected. All violations are reported.
func Validate(routes []*Route) error {
	var errs []error
	paths := make(map[string]bool, len(routes))

	for i, rt := range routes {
		if rt == nil {
			errs = append(errs, fmt.Errorf("routes[%d]: route is nil", i))
			continue
		}
		if !strings.HasPrefix(rt.Path, "/") {
			errs = append(errs, fmt.Errorf("routes[%d]: path %q must start with /", i, rt.Path))
		}
		if paths[rt.Path] {
			errs = append(errs, fmt.Errorf("routes[%d]: duplicate path %q", i, rt.Path))
		}
		paths[rt.Path] = true

		types := make(map[string]bool, len(rt.Methods))
		for _, m := range rt.Methods {
			t := NormalizeMethod(m.Type)
			if t == "" {
				errs = append(errs, fmt.Errorf("route %q: method type is required", rt.Path))
				continue
			}
			if types[t] {
				errs = append(errs, fmt.Errorf("route %q: duplicate method %q", rt.Path, m.Type))
			}
			types[t] = true
			errs = append(errs, validateOverrides(rt.Path, m)...)
		}
	}
	return errors.Join(errs...)
}

func validateOverrides(path string, m *Method) []error {
	var errs []error
	names := make(map[string]bool, len(m.Overrides))
	selected := 0
	for _, o := range m.Overrides {
		switch {
		case o.Name == "":
			errs = append(errs, fmt.Errorf("route %q method %q: override name is required", path, m.Type))
		case IsDefaultOverride(o.Name):
			errs = append(errs, fmt.Errorf("route %q method %q: override name %q is reserved", path, m.Type, o.Name))
		case names[o.Name]:
			errs = append(errs, fmt.Errorf("route %q method %q: duplicate override %q", path, m.Type, o.Name))
		}
		names[o.Name] = true
		if o.Selected {
			selected++
		}
	}
	if selected > 1 {
		errs = append(errs, fmt.Errorf("route %q method %q: %d overrides selected, at most one allowed", path, m.Type, selected))
	}
	return errs
}
