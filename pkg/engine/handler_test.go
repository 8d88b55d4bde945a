package engine

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/getmockd/routemock/pkg/content"
	"github.com/getmockd/routemock/pkg/route"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*Handler, *route.Registry) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dogs.json"), []byte(`[{"name":"Rex"}]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "people.json"), []byte(`{"active":[1],"inactive":[2]}`), 0o644))

	reg := route.NewRegistry(
		&route.Route{Path: "/users", Methods: []*route.Method{{
			Type: "get",
			Data: route.Static([]any{"First user"}),
			Overrides: []*route.Override{
				{Name: "Inactive User", Data: route.Static(map[string]any{"active": false})},
			},
		}}},
		&route.Route{Path: "/users/:id", Methods: []*route.Method{{
			Type: "GET",
			Data: route.Dynamic(func(r *http.Request) (any, error) {
				return map[string]any{"id": r.PathValue("id"), "param": route.ParamsFrom(r.Context())["id"]}, nil
			}),
		}, {
			Type: "delete",
			Data: route.Dynamic(func(*http.Request) (any, error) { return nil, errors.New("boom") }),
		}}},
		&route.Route{Path: "/users/me", Methods: []*route.Method{{Type: "get", Data: route.Static("me")}}},
		&route.Route{Path: "/dogs", Methods: []*route.Method{{Type: "get"}}},
		&route.Route{Path: "/cats", Methods: []*route.Method{{Type: "get"}}},
		&route.Route{Path: "/people", Methods: []*route.Method{{
			Type:      "get",
			File:      route.Static("people"),
			Scenario:  "active",
			Overrides: []*route.Override{{Name: "Inactive", Scenario: "inactive"}, {Name: "Inline", Data: route.Static("inline")}},
		}}},
	)
	return NewHandler(reg, content.NewResolver(content.NewFileFixtures(dir))), reg
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHandler_ServeHTTP(t *testing.T) {
	h, reg := newTestHandler(t)

	tests := []struct {
		name   string
		method string
		target string
		status int
		body   string
	}{
		{"static data", http.MethodGet, "/users", http.StatusOK, `["First user"]`},
		{"path params", http.MethodGet, "/users/42", http.StatusOK, `{"id":"42","param":"42"}`},
		{"exact path wins", http.MethodGet, "/users/me", http.StatusOK, `"me"`},
		{"fixture from path", http.MethodGet, "/dogs", http.StatusOK, `[{"name":"Rex"}]`},
		{"missing fixture", http.MethodGet, "/cats", http.StatusNotFound, ``},
		{"unknown route", http.MethodGet, "/birds", http.StatusNotFound, `{"message":"route not found: \"/birds\""}`},
		{"unknown method", http.MethodPost, "/users", http.StatusNotFound, `{"message":"method not found: \"POST\""}`},
		{"resolver error", http.MethodDelete, "/users/1", http.StatusInternalServerError, ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.method, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.JSONEq(t, tt.body, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), "message")
			}
		})
	}

	t.Run("selected override", func(t *testing.T) {
		reg.SetSelected("/users", "get", "Inactive User")
		defer reg.SetSelected("/users", "get", "")

		rec := serve(h, http.MethodGet, "/users")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"active":false}`, rec.Body.String())
		assert.Equal(t, "Inactive User", rec.Header().Get(OverrideHeader))
	})
}

func TestHandler_SelectedOverrideInheritsMethod(t *testing.T) {
	h, reg := newTestHandler(t)

	rec := serve(h, http.MethodGet, "/people")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[1]`, rec.Body.String())
	assert.Empty(t, rec.Header().Get(OverrideHeader))

	reg.SetSelected("/people", "get", "Inactive")
	rec = serve(h, http.MethodGet, "/people")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `[2]`, rec.Body.String())
	assert.Equal(t, "Inactive", rec.Header().Get(OverrideHeader))

	reg.SetSelected("/people", "get", "Inline")
	rec = serve(h, http.MethodGet, "/people")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `"inline"`, rec.Body.String())
}

func TestHandler_HasMatch(t *testing.T) {
	h, _ := newTestHandler(t)
	assert.True(t, h.HasMatch(httptest.NewRequest(http.MethodGet, "/users/1", nil)))
	assert.False(t, h.HasMatch(httptest.NewRequest(http.MethodPut, "/users/1", nil)))
	assert.False(t, h.HasMatch(httptest.NewRequest(http.MethodGet, "/nope", nil)))
}

func TestCORS(t *testing.T) {
	h, _ := newTestHandler(t)
	wrapped := CORS(DefaultCORSConfig(), h, h)

	req := httptest.NewRequest(http.MethodOptions, "/users", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec = httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	restricted := CORS(CORSConfig{Enabled: true, AllowOrigins: []string{"http://app.local"}}, h, h)
	req = httptest.NewRequest(http.MethodOptions, "/users", nil)
	req.Header.Set("Origin", "http://evil.local")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec = httptest.NewRecorder()
	restricted.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	disabled := CORS(CORSConfig{}, h, h)
	rec = serve(disabled, http.MethodGet, "/users")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
