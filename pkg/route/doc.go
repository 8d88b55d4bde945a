// Package route holds the route table of the mock server.
//
// A Route is a registered path with one Method per HTTP verb. Each Method has
// default content (inline data, a fixture file reference and an optional
// scenario) and an optional list of named Overrides, alternative response
// variants of which at most one is selected at a time.
//
// The Registry owns the table and the selection index. The table is replaced
// wholesale with SetAll; the index maps each (route path, method type) pair to
// the name of its selected override and is reseeded from the incoming
// overrides' Selected flags on every SetAll.
//
// Lookups fail with errors wrapping ErrRouteNotFound or ErrMethodNotFound, so
// callers can match them with errors.Is:
//
//	rt, err := registry.FindRouteByPath("/users")
//	if errors.Is(err, route.ErrRouteNotFound) {
//	    // ...
//	}
//	m, err := route.FindMethodByType(rt.Methods, "GET")
//
// Method types are compared case-insensitively.
package route
