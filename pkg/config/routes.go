package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/routemock/pkg/route"
)

// RouteFile is the decoded form of a route file.
type RouteFile struct {
	Routes []RouteSpec `json:"routes"`
}

// RouteSpec is one route as written in a route file.
type RouteSpec struct {
	Path    string       `json:"path"`
	Methods []MethodSpec `json:"methods"`
}

// ContentSpec holds the content fields shared by methods and overrides.
type ContentSpec struct {
	Data     any    `json:"data,omitempty"`
	DataExpr string `json:"dataExpr,omitempty"`
	File     string `json:"file,omitempty"`
	FileExpr string `json:"fileExpr,omitempty"`
	Scenario string `json:"scenario,omitempty"`
}

// MethodSpec is one method as written in a route file.
type MethodSpec struct {
	Type string `json:"type"`
	ContentSpec
	Overrides []OverrideSpec `json:"overrides,omitempty"`
}

// OverrideSpec is one override as written in a route file.
type OverrideSpec struct {
	Name string `json:"name"`
	ContentSpec
	Selected bool `json:"selected,omitempty"`
}

// LoadRoutes loads every route file matched by cfg.Routes. Patterns are
// relative to cfg.Dir. Files are read in lexical order and the combined
// table must satisfy route.Validate.
func LoadRoutes(cfg *Config) ([]*route.Route, []string, error) {
	files, err := ExpandRoutePatterns(cfg.Dir, cfg.Routes)
	if err != nil {
		return nil, nil, err
	}

	var routes []*route.Route
	for _, f := range files {
		rs, err := LoadRouteFile(f)
		if err != nil {
			return nil, nil, err
		}
		routes = append(routes, rs...)
	}
	if err := route.Validate(routes); err != nil {
		return nil, nil, err
	}
	return routes, files, nil
}

// ExpandRoutePatterns returns the sorted, de-duplicated files matched by
// patterns. ** matches any number of directories.
func ExpandRoutePatterns(dir string, patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(dir, pattern)
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid route pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	slices.Sort(files)
	return files, nil
}

// LoadRouteFile reads, validates and converts one route file.
func LoadRouteFile(path string) ([]*route.Route, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	routes, err := ParseRoutes(data, formatOf(path))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return routes, nil
}

// ParseRoutes validates a route document against the route schema and
// converts it. format is "json" or "yaml".
func ParseRoutes(data []byte, format string) ([]*route.Route, error) {
	var doc any
	if format == "json" {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
	} else if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	raw, normalized, err := normalizeJSON(doc)
	if err != nil {
		return nil, fmt.Errorf("route file is not JSON compatible: %w", err)
	}
	if err := ValidateRouteDocument(normalized); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var file RouteFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to decode routes: %w", err)
	}
	return file.Convert()
}

// Convert compiles the expressions of f and returns the routes.
func (f *RouteFile) Convert() ([]*route.Route, error) {
	var errs []error
	routes := make([]*route.Route, 0, len(f.Routes))
	for _, rs := range f.Routes {
		rt := &route.Route{Path: rs.Path}
		for _, ms := range rs.Methods {
			where := fmt.Sprintf("%s %s", strings.ToUpper(ms.Type), rs.Path)
			m := &route.Method{Type: route.NormalizeMethod(ms.Type), Scenario: ms.Scenario}
			var err error
			if m.Data, m.File, err = ms.ContentSpec.payloads(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", where, err))
			}
			for _, ovr := range ms.Overrides {
				o := &route.Override{Name: ovr.Name, Scenario: ovr.Scenario, Selected: ovr.Selected}
				if o.Data, o.File, err = ovr.ContentSpec.payloads(); err != nil {
					errs = append(errs, fmt.Errorf("%s override %q: %w", where, ovr.Name, err))
				}
				m.Overrides = append(m.Overrides, o)
			}
			rt.Methods = append(rt.Methods, m)
		}
		routes = append(routes, rt)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return routes, nil
}

func (c ContentSpec) payloads() (data, file route.Payload, err error) {
	switch {
	case c.DataExpr != "":
		if data, err = CompileDataExpr(c.DataExpr); err != nil {
			return
		}
	case c.Data != nil:
		data = route.Static(c.Data)
	}
	switch {
	case c.FileExpr != "":
		file, err = CompileFileExpr(c.FileExpr)
	case c.File != "":
		file = route.Static(c.File)
	}
	return
}
