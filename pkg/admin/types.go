package admin

import "github.com/getmockd/routemock/pkg/throttle"

// UseOverrideRequest is the body of POST /admin/routes/use-override.
// An empty or unknown Name clears the selection.
type UseOverrideRequest struct {
	Path string `json:"path"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// UseThrottlingRequest is the body of POST /admin/routes/use-throttling.
// An empty or unknown Name turns throttling off.
type UseThrottlingRequest struct {
	Name string `json:"name"`
}

// ThrottlingStatus is the body of GET /admin/throttling.
type ThrottlingStatus struct {
	Current *throttle.Band  `json:"current"`
	Bands   []throttle.Band `json:"bands"`
}

// Health is the body of GET /admin/health.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Routes  int    `json:"routes"`
}
