// Package metrics exposes Prometheus metrics for mock traffic, override
// selections and throttling.
//
//   - routemock_requests_total: mock requests (labels: method, route, status)
//   - routemock_request_duration_seconds: mock request latency (labels: method, route)
//   - routemock_overrides_served_total: responses served from an override (labels: method, route, override)
//   - routemock_override_selections_total: override selections made through the admin API (labels: method, route)
//   - routemock_throttle_delay_seconds: delays added by the active throttling band
//   - routemock_routes: registered routes
//
// The route label is the matched route pattern ("/users/:id"), or
// "unmatched", so its cardinality is bounded by the route table.
//
// A nil *Metrics is valid and records nothing.
package metrics
