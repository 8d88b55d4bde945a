package route

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
)

// DefaultOverride is the override name that means "use the method's own content".
// It is compared case-insensitively.
const DefaultOverride = "default"

// Route is a registered path and the methods it answers.
type Route struct {
	// Path is the route pattern, e.g. "/users" or "/users/:id". Unique within a registry.
	Path string `json:"path"`

	// Methods holds one entry per HTTP verb, in declaration order.
	Methods []*Method `json:"methods"`
}

// Method is one HTTP verb's behavior for a route.
type Method struct {
	// Type is the HTTP verb. Compared case-insensitively.
	Type string `json:"type"`

	// Data is the inline response payload.
	Data Payload `json:"data,omitzero"`

	// File references a fixture file. Static payloads hold a string path.
	File Payload `json:"file,omitzero"`

	// Scenario scopes the fixture lookup to one variant of the fixture.
	Scenario string `json:"scenario,omitempty"`

	// Overrides are the named alternatives to the default content.
	Overrides []*Override `json:"overrides,omitempty"`
}

// Override is a named response variant of a method.
type Override struct {
	Name     string  `json:"name"`
	Data     Payload `json:"data,omitzero"`
	File     Payload `json:"file,omitzero"`
	Scenario string  `json:"scenario,omitempty"`

	// Selected is a view of the registry's selection index on routes returned
	// by the Registry. On routes passed to SetAll it seeds the index.
	Selected bool `json:"selected,omitempty"`
}

// Selection records which override is active for a route method.
// It is the unit persisted across restarts and returned by the admin API.
type Selection struct {
	RoutePath  string `json:"routePath"`
	MethodType string `json:"methodType"`
	Name       string `json:"name"`
}

// Overridable reports whether the method has at least one override.
func (m *Method) Overridable() bool {
	return len(m.Overrides) > 0
}

// FindOverride returns the override with the given name (exact match), or nil.
func (m *Method) FindOverride(name string) *Override {
	for _, o := range m.Overrides {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// SelectedOverride returns the override flagged as selected, or nil.
func (m *Method) SelectedOverride() *Override {
	for _, o := range m.Overrides {
		if o.Selected {
			return o
		}
	}
	return nil
}

// NormalizeMethod returns the canonical (lower-case) form of a method type.
func NormalizeMethod(methodType string) string {
	return strings.ToLower(strings.TrimSpace(methodType))
}

// IsDefaultOverride reports whether name means "no override": empty or the
// DefaultOverride marker in any case.
func IsDefaultOverride(name string) bool {
	return name == "" || strings.EqualFold(name, DefaultOverride)
}

// Resolver computes a payload from the incoming request at serve time.
type Resolver func(r *http.Request) (any, error)

// Payload is either a static value or a dynamic resolver.
// The zero Payload is absent.
type Payload struct {
	value    any
	resolver Resolver
}

// Static returns a payload holding v as-is.
func Static(v any) Payload {
	return Payload{value: v}
}

// Dynamic returns a payload computed by fn for each request.
func Dynamic(fn Resolver) Payload {
	return Payload{resolver: fn}
}

// IsZero reports whether the payload is absent.
func (p Payload) IsZero() bool {
	return p.value == nil && p.resolver == nil
}

// IsDynamic reports whether the payload needs a request to be computed.
func (p Payload) IsDynamic() bool {
	return p.resolver != nil
}

// Value returns the static value, or nil for dynamic and absent payloads.
func (p Payload) Value() any {
	return p.value
}

// String returns the static value when it is a string (fixture paths).
func (p Payload) String() string {
	s, _ := p.value.(string)
	return s
}

// Resolve returns the static value or invokes the resolver with r.
func (p Payload) Resolve(r *http.Request) (any, error) {
	if p.resolver != nil {
		return p.resolver(r)
	}
	return p.value, nil
}

// MarshalJSON encodes static values as-is. Dynamic payloads cannot be
// serialized and encode as null.
func (p Payload) MarshalJSON() ([]byte, error) {
	if p.resolver != nil {
		return []byte("null"), nil
	}
	return json.Marshal(p.value)
}

// UnmarshalJSON decodes any JSON value into a static payload.
func (p *Payload) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = Payload{}
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Static(v)
	return nil
}
