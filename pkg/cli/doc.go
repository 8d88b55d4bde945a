// Package cli implements the routemock command line: the serve command that
// runs the mock server, offline validation of route files, and client
// commands that drive a running server through its admin API.
package cli
