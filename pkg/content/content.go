// Package content turns a method's or override's attributes into the payload
// served for it, reading fixture files when no inline data is configured.
package content

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/getmockd/routemock/pkg/route"
)

// ErrFixtureNotFound is returned when a fixture file or scenario is missing.
var ErrFixtureNotFound = errors.New("fixture not found")

// PlaceholderMessage is shown in place of payloads computed per request.
const PlaceholderMessage = "The data will be resolved at runtime"

// RuntimeMessage is the body returned by Preview for dynamic payloads.
type RuntimeMessage struct {
	Message string `json:"message"`
}

// Placeholder is what Preview returns for dynamic data or file attributes.
var Placeholder = RuntimeMessage{Message: PlaceholderMessage}

// Attributes are the content-bearing fields of a method or override.
type Attributes struct {
	Data     route.Payload
	File     route.Payload
	Scenario string
}

// MethodAttributes returns the method's own attributes.
func MethodAttributes(m *route.Method) Attributes {
	return Attributes{Data: m.Data, File: m.File, Scenario: m.Scenario}
}

// OverrideAttributes returns the override's attributes.
func OverrideAttributes(o *route.Override) Attributes {
	return Attributes{Data: o.Data, File: o.File, Scenario: o.Scenario}
}

// SelectedAttributes returns the attributes served while o is selected:
// the override's own, with every field it leaves unset taken from m.
func SelectedAttributes(m *route.Method, o *route.Override) Attributes {
	a := OverrideAttributes(o)
	if a.Data.IsZero() {
		a.Data = m.Data
	}
	if a.File.IsZero() {
		a.File = m.File
	}
	if a.Scenario == "" {
		a.Scenario = m.Scenario
	}
	return a
}

// IsDynamic reports whether the attributes need a request to be resolved.
func (a Attributes) IsDynamic() bool {
	return a.Data.IsDynamic() || a.File.IsDynamic()
}

// FixtureReader loads fixture content. name is the configured file
// reference or, when none is set, the route path.
type FixtureReader interface {
	ReadFixture(ctx context.Context, name, scenario string) (any, error)
}

// Resolver produces payloads from attributes.
type Resolver struct {
	fixtures FixtureReader
}

// NewResolver creates a resolver reading fixtures through fixtures.
func NewResolver(fixtures FixtureReader) *Resolver {
	return &Resolver{fixtures: fixtures}
}

// Preview resolves attributes without a request, as the admin API does.
// Dynamic data or file attributes yield Placeholder.
func (r *Resolver) Preview(ctx context.Context, routePath string, attrs Attributes) (any, error) {
	if attrs.IsDynamic() {
		return Placeholder, nil
	}
	if !attrs.Data.IsZero() {
		return attrs.Data.Value(), nil
	}
	return r.readFixture(ctx, routePath, attrs.File.String(), attrs.Scenario)
}

// Serve resolves attributes for a live request, invoking dynamic resolvers
// with req.
func (r *Resolver) Serve(req *http.Request, routePath string, attrs Attributes) (any, error) {
	if !attrs.Data.IsZero() {
		v, err := attrs.Data.Resolve(req)
		if err != nil {
			return nil, fmt.Errorf("resolve data for %s: %w", routePath, err)
		}
		return v, nil
	}

	var file string
	if !attrs.File.IsZero() {
		v, err := attrs.File.Resolve(req)
		if err != nil {
			return nil, fmt.Errorf("resolve file for %s: %w", routePath, err)
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("file for %s resolved to %T, want string", routePath, v)
		}
		file = s
	}
	return r.readFixture(req.Context(), routePath, file, attrs.Scenario)
}

func (r *Resolver) readFixture(ctx context.Context, routePath, file, scenario string) (any, error) {
	name := file
	if name == "" {
		name = routePath
	}
	if r.fixtures == nil {
		return nil, fmt.Errorf("%w: %s", ErrFixtureNotFound, name)
	}
	return r.fixtures.ReadFixture(ctx, name, scenario)
}
