package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/getmockd/routemock/pkg/engine"
	"github.com/getmockd/routemock/pkg/route"
)

// Namespace prefixes every metric name.
const Namespace = "routemock"

// Unmatched is the route label of requests no route serves.
const Unmatched = "unmatched"

// DefaultBuckets are the histogram buckets for request durations (in seconds).
var DefaultBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Metrics holds the routemock collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	served        *prometheus.CounterVec
	selections    *prometheus.CounterVec
	throttleDelay prometheus.Histogram
	routes        prometheus.Gauge
}

// New creates the collectors in a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "requests_total",
			Help:      "Mock requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "request_duration_seconds",
			Help:      "Mock request latency, throttling included.",
			Buckets:   DefaultBuckets,
		}, []string{"method", "route"}),
		served: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "overrides_served_total",
			Help:      "Mock responses served from a selected override.",
		}, []string{"method", "route", "override"}),
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "override_selections_total",
			Help:      "Override selections made through the admin API.",
		}, []string{"method", "route"}),
		throttleDelay: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "throttle_delay_seconds",
			Help:      "Delays added by the active throttling band.",
			Buckets:   DefaultBuckets,
		}),
		routes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "routes",
			Help:      "Registered routes.",
		}),
	}

	m.registry.MustRegister(
		m.requests, m.duration, m.served, m.selections, m.throttleDelay, m.routes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors are registered in.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SetRoutes records the size of the route table.
func (m *Metrics) SetRoutes(n int) {
	if m == nil {
		return
	}
	m.routes.Set(float64(n))
}

// ObserveSelection counts an override selection.
func (m *Metrics) ObserveSelection(sel route.Selection) {
	if m == nil {
		return
	}
	m.selections.WithLabelValues(strings.ToUpper(sel.MethodType), sel.RoutePath).Inc()
}

// ObserveThrottle records a throttling delay.
func (m *Metrics) ObserveThrottle(d time.Duration) {
	if m == nil {
		return
	}
	m.throttleDelay.Observe(d.Seconds())
}

// RouteMatcher resolves a request path to its route.
type RouteMatcher interface {
	Match(path string) (*route.Route, map[string]string)
}

// Middleware records every request that reaches next.
func (m *Metrics) Middleware(matcher RouteMatcher, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		pattern := Unmatched
		if rt, _ := matcher.Match(r.URL.Path); rt != nil {
			pattern = rt.Path
		}
		m.requests.WithLabelValues(r.Method, pattern, strconv.Itoa(rw.statusCode)).Inc()
		m.duration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
		if name := rw.Header().Get(engine.OverrideHeader); name != "" {
			m.served.WithLabelValues(r.Method, pattern, name).Inc()
		}
	})
}

// responseWriter captures the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.written {
		w.statusCode = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
