package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/routemock/pkg/engine"
	"github.com/getmockd/routemock/pkg/route"
)

type fakeMatcher map[string]*route.Route

func (f fakeMatcher) Match(path string) (*route.Route, map[string]string) {
	for pattern, rt := range f {
		if params, ok := route.Match(pattern, path); ok {
			return rt, params
		}
	}
	return nil, nil
}

func TestMiddleware(t *testing.T) {
	m := New()
	matcher := fakeMatcher{"/users/:id": {Path: "/users/:id"}}
	h := m.Middleware(matcher, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/users/7" {
			w.Header().Set(engine.OverrideHeader, "Inactive User")
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	for _, p := range []string{"/users/7", "/users/7", "/cats"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/users/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", Unmatched, "404")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.served.WithLabelValues("GET", "/users/:id", "Inactive User")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestObservers(t *testing.T) {
	m := New()
	m.SetRoutes(3)
	m.ObserveSelection(route.Selection{RoutePath: "/users", MethodType: "get", Name: "x"})
	m.ObserveThrottle(20 * time.Millisecond)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.routes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.selections.WithLabelValues("GET", "/users")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.throttleDelay))
}

func TestHandler(t *testing.T) {
	m := New()
	m.SetRoutes(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "# TYPE routemock_routes gauge")
	assert.Contains(t, body, "routemock_routes 2")
	assert.True(t, strings.Contains(body, "go_goroutines"), "runtime collectors are registered")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	next := http.NotFoundHandler()

	assert.NotPanics(t, func() {
		m.SetRoutes(1)
		m.ObserveThrottle(time.Second)
		m.ObserveSelection(route.Selection{})
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Middleware(nil, next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
