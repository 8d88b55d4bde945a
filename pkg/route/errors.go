package route

import "errors"

// Lookup errors. They are wrapped with the key that failed to resolve.
var (
	// ErrRouteNotFound means no route matches the given path.
	ErrRouteNotFound = errors.New("route not found")

	// ErrMethodNotFound means the route exists but has no method of the given type.
	ErrMethodNotFound = errors.New("method not found")

	// ErrOverrideNotApplicable means the method has no overrides, or none with the given name.
	ErrOverrideNotApplicable = errors.New("override not applicable")
)
