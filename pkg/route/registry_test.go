package route

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoutes() []*Route {
	return []*Route{
		{
			Path: "/users",
			Methods: []*Method{
				{
					Type: "get",
					Data: Static([]any{"First user"}),
					Overrides: []*Override{
						{Name: "Inactive User", Data: Static(map[string]any{"active": false})},
					},
				},
			},
		},
		{Path: "/dogs", Methods: []*Method{{Type: "get"}}},
	}
}

func TestRegistry_AllKeepsRegistrationOrder(t *testing.T) {
	reg := NewRegistry(testRoutes()...)

	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "/users", all[0].Path)
	assert.Equal(t, "/dogs", all[1].Path)
	assert.Equal(t, 2, reg.Len())
}

func TestRegistry_SetAllReplaces(t *testing.T) {
	reg := NewRegistry(testRoutes()...)
	reg.SetSelected("/users", "get", "Inactive User")

	reg.SetAll([]*Route{{Path: "/cats", Methods: []*Method{{Type: "GET"}}}})

	all := reg.All()
	require.Len(t, all, 1)
	assert.Equal(t, "/cats", all[0].Path)
	_, ok := reg.SelectedName("/users", "get")
	assert.False(t, ok, "selection index should be reseeded")
}

func TestRegistry_SetAllSeedsSelection(t *testing.T) {
	routes := testRoutes()
	routes[0].Methods[0].Overrides[0].Selected = true

	reg := NewRegistry(routes...)

	name, ok := reg.SelectedName("/users", "GET")
	require.True(t, ok)
	assert.Equal(t, "Inactive User", name)
}

func TestRegistry_FindRouteByPath(t *testing.T) {
	reg := NewRegistry(testRoutes()...)

	t.Run("exact match", func(t *testing.T) {
		rt, err := reg.FindRouteByPath("/dogs")
		require.NoError(t, err)
		assert.Equal(t, "/dogs", rt.Path)
	})

	t.Run("unregistered path", func(t *testing.T) {
		_, err := reg.FindRouteByPath("/dogs-teste")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrRouteNotFound))
		assert.Contains(t, err.Error(), "/dogs-teste")
	})

	t.Run("no prefix match", func(t *testing.T) {
		_, err := reg.FindRouteByPath("/dog")
		assert.ErrorIs(t, err, ErrRouteNotFound)
	})
}

func TestRegistry_ReturnsCopies(t *testing.T) {
	reg := NewRegistry(testRoutes()...)

	rt, err := reg.FindRouteByPath("/users")
	require.NoError(t, err)
	rt.Methods[0].Overrides[0].Selected = true
	rt.Methods[0].Type = "post"

	again, err := reg.FindRouteByPath("/users")
	require.NoError(t, err)
	assert.Equal(t, "get", again.Methods[0].Type)
	assert.False(t, again.Methods[0].Overrides[0].Selected)
}

func TestRegistry_SelectedView(t *testing.T) {
	reg := NewRegistry(testRoutes()...)

	reg.SetSelected("/users", "GET", "Inactive User")
	rt, err := reg.FindRouteByPath("/users")
	require.NoError(t, err)
	assert.True(t, rt.Methods[0].Overrides[0].Selected)
	assert.Equal(t, "Inactive User", rt.Methods[0].SelectedOverride().Name)

	reg.SetSelected("/users", "get", "")
	rt, err = reg.FindRouteByPath("/users")
	require.NoError(t, err)
	assert.Nil(t, rt.Methods[0].SelectedOverride())
}

func TestFindMethodByType(t *testing.T) {
	methods := []*Method{{Type: "get"}, {Type: "POST"}}

	tests := []struct {
		name     string
		typ      string
		expected string
		wantErr  bool
	}{
		{"lower", "get", "get", false},
		{"upper", "GET", "get", false},
		{"mixed", "Post", "POST", false},
		{"missing", "delete", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := FindMethodByType(methods, tt.typ)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMethodNotFound)
				assert.Contains(t, err.Error(), tt.typ)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, m.Type)
		})
	}
}

func TestRoute_MarshalJSON(t *testing.T) {
	rt := &Route{
		Path: "/example",
		Methods: []*Method{{
			Type: "get",
			Data: Static(map[string]any{"a": 1}),
			Overrides: []*Override{
				{Name: "Computed", Data: Dynamic(func(*http.Request) (any, error) { return 1, nil })},
				{Name: "File", File: Static("data/example.json"), Selected: true},
			},
		}},
	}

	data, err := json.Marshal(rt)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"path": "/example",
		"methods": [{
			"type": "get",
			"data": {"a": 1},
			"overrides": [
				{"name": "Computed", "data": null},
				{"name": "File", "file": "data/example.json", "selected": true}
			]
		}]
	}`, string(data))
}

func TestRoute_UnmarshalJSON(t *testing.T) {
	var rt Route
	err := json.Unmarshal([]byte(`{"path":"/users","methods":[{"type":"get","data":["First user"],"overrides":[{"name":"Inactive User","data":{"active":false}}]}]}`), &rt)
	require.NoError(t, err)

	m := rt.Methods[0]
	assert.Equal(t, []any{"First user"}, m.Data.Value())
	assert.True(t, m.File.IsZero())
	assert.Equal(t, map[string]any{"active": false}, m.Overrides[0].Data.Value())
}

func TestPayload(t *testing.T) {
	var zero Payload
	assert.True(t, zero.IsZero())
	assert.False(t, zero.IsDynamic())

	s := Static("fixtures/users.json")
	assert.False(t, s.IsZero())
	assert.Equal(t, "fixtures/users.json", s.String())

	d := Dynamic(func(r *http.Request) (any, error) { return r.Method, nil })
	assert.True(t, d.IsDynamic())
	assert.Nil(t, d.Value())
	req, _ := http.NewRequest(http.MethodPut, "/", nil)
	v, err := d.Resolve(req)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, v)
}

func TestIsDefaultOverride(t *testing.T) {
	assert.True(t, IsDefaultOverride(""))
	assert.True(t, IsDefaultOverride("default"))
	assert.True(t, IsDefaultOverride("Default"))
	assert.True(t, IsDefaultOverride("DEFAULT"))
	assert.False(t, IsDefaultOverride("Inactive User"))
}
