package engine

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig controls the CORS headers added to mock responses.
type CORSConfig struct {
	Enabled      bool     `json:"enabled" yaml:"enabled"`
	AllowOrigins []string `json:"allowOrigins,omitempty" yaml:"allowOrigins,omitempty"`
	MaxAge       int      `json:"maxAge,omitempty" yaml:"maxAge,omitempty"`
}

// DefaultCORSConfig allows every origin.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{Enabled: true, AllowOrigins: []string{"*"}, MaxAge: 86400}
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin,
// or "" when it is not allowed.
func (c CORSConfig) allowOrigin(origin string) string {
	if slices.Contains(c.AllowOrigins, "*") {
		return "*"
	}
	if origin != "" && slices.Contains(c.AllowOrigins, origin) {
		return origin
	}
	return ""
}

// MockChecker reports whether a route serves a request.
type MockChecker interface {
	HasMatch(r *http.Request) bool
}

// CORS wraps next with CORS handling. Preflight requests are answered
// directly unless a route defines an OPTIONS method for the path.
func CORS(cfg CORSConfig, checker MockChecker, next http.Handler) http.Handler {
	if !cfg.Enabled {
		return next
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 86400
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allow := cfg.allowOrigin(r.Header.Get("Origin"))
		if allow != "" {
			w.Header().Set("Access-Control-Allow-Origin", allow)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS, HEAD")
			if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
				w.Header().Set("Access-Control-Allow-Headers", req)
			} else {
				w.Header().Set("Access-Control-Allow-Headers", strings.Join([]string{"Content-Type", "Authorization", "Accept", "Origin"}, ", "))
			}
			w.Header().Set("Access-Control-Max-Age", strconv.Itoa(maxAge))
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			if checker != nil && checker.HasMatch(r) {
				next.ServeHTTP(w, r)
				return
			}
			if allow != "" {
				w.WriteHeader(http.StatusNoContent)
			} else {
				w.WriteHeader(http.StatusForbidden)
			}
			return
		}

		next.ServeHTTP(w, r)
	})
}
