package route

import (
	"context"
	"strings"
)

type paramsKey struct{}

// WithParams returns a context carrying the path parameters of a matched route.
func WithParams(ctx context.Context, params map[string]string) context.Context {
	return context.WithValue(ctx, paramsKey{}, params)
}

// ParamsFrom returns the path parameters stored by WithParams, or nil.
func ParamsFrom(ctx context.Context) map[string]string {
	params, _ := ctx.Value(paramsKey{}).(map[string]string)
	return params
}

// Match reports whether path matches the route pattern. Pattern segments
// starting with ':' capture the corresponding path segment.
//
//	Match("/users/:id", "/users/42") // map[id:42], true
func Match(pattern, path string) (map[string]string, bool) {
	ps := splitPath(pattern)
	segs := splitPath(path)
	if len(ps) != len(segs) {
		return nil, false
	}

	var params map[string]string
	for i, p := range ps {
		if strings.HasPrefix(p, ":") && len(p) > 1 {
			if segs[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[p[1:]] = segs[i]
			continue
		}
		if p != segs[i] {
			return nil, false
		}
	}
	return params, true
}

// ParamNames returns the parameter names of a pattern in order.
func ParamNames(pattern string) []string {
	var names []string
	for _, p := range splitPath(pattern) {
		if strings.HasPrefix(p, ":") && len(p) > 1 {
			names = append(names, p[1:])
		}
	}
	return names
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
