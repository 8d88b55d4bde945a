package cli

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/routemock/pkg/admin"
	"github.com/getmockd/routemock/pkg/config"
	"github.com/getmockd/routemock/pkg/content"
	"github.com/getmockd/routemock/pkg/override"
	"github.com/getmockd/routemock/pkg/route"
	"github.com/getmockd/routemock/pkg/throttle"
)

func newTestAdmin(t *testing.T) *httptest.Server {
	t.Helper()
	reg := route.NewRegistry(
		&route.Route{Path: "/users", Methods: []*route.Method{{
			Type: "get",
			Data: route.Static([]any{"First user"}),
			Overrides: []*route.Override{
				{Name: "Inactive User", Data: route.Static(map[string]any{"active": false})},
			},
		}}},
		&route.Route{Path: "/dogs", Methods: []*route.Method{{Type: "get", Data: route.Static([]any{"Rex"})}}},
	)
	opts := config.Options{
		Throttlings: []throttle.Band{{Name: "Slow", Values: [2]int{20, 30}}},
		Proxies:     []config.Proxy{{Name: "sandbox", Host: "https://sandbox.com"}},
	}
	api := admin.New(reg, override.NewManager(reg, content.NewResolver(nil)), throttle.New(opts.Throttlings), opts, admin.WithVersion("1.2.3"))

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestAdminClient(t *testing.T) {
	srv := newTestAdmin(t)
	client := NewAdminClient(srv.URL + "/")
	ctx := context.Background()

	h, err := client.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", h.Version)
	assert.Equal(t, 2, h.Routes)

	routes, err := client.ListRoutes(ctx, "")
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Equal(t, []any{"First user"}, routes[0].Methods[0].Data.Value())

	routes, err = client.ListRoutes(ctx, "/dogs")
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "/dogs", routes[0].Path)

	raw, err := client.GetContent(ctx, "/users", "get", "Inactive User")
	require.NoError(t, err)
	assert.JSONEq(t, `{"active":false}`, string(raw))

	sel, err := client.UseOverride(ctx, "/users", "get", "Inactive User")
	require.NoError(t, err)
	assert.Equal(t, route.Selection{RoutePath: "/users", MethodType: "get", Name: "Inactive User"}, *sel)

	selected, err := client.ListSelected(ctx)
	require.NoError(t, err)
	assert.Equal(t, []route.Selection{*sel}, selected)

	overridable, err := client.ListOverridable(ctx)
	require.NoError(t, err)
	require.Len(t, overridable, 1)
	assert.True(t, overridable[0].Methods[0].Overrides[0].Selected)

	require.NoError(t, client.UseThrottling(ctx, "Slow"))
	status, err := client.GetThrottling(ctx)
	require.NoError(t, err)
	require.NotNil(t, status.Current)
	assert.Equal(t, "Slow", status.Current.Name)

	opts, err := client.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://sandbox.com", opts.Proxies[0].Host)

	doc, err := client.GetOpenAPI(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(doc), `"/users"`)
}

func TestAdminClient_APIError(t *testing.T) {
	client := NewAdminClient(newTestAdmin(t).URL)

	_, err := client.ListRoutes(context.Background(), "/dogs-teste")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "/dogs-teste")
}

func TestAdminClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewAdminClient(srv.URL).ListSelected(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "server returned status 502: gateway down", apiErr.Message)
}

func TestAdminClient_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewAdminClient(url).Health(context.Background())
	require.ErrorIs(t, err, ErrConnection)
	assert.Contains(t, FormatConnectionError(err).Error(), "routemock serve")

	plain := errors.New("other")
	assert.Equal(t, plain, FormatConnectionError(plain))
}

func TestAdminClient_EventsURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:8080/admin/events", NewAdminClient("http://localhost:8080").EventsURL())
	assert.Equal(t, "wss://mock.example.com/admin/events", NewAdminClient("https://mock.example.com/").EventsURL())
}
