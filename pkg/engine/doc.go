// Package engine serves the registered routes: it matches the request path
// and method, picks the selected override (or the method's own content)
// and writes the resolved payload as JSON.
package engine
