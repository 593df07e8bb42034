// Package routes declares HTTP routes as data and registers them on a
// ServeMux using method-qualified patterns.
package routes

import "net/http"

// Route binds an HTTP method and path to a handler. Pattern is relative to
// the enclosing group's prefix; empty means the prefix itself.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

func (r Route) under(prefix string) string {
	return r.Method + " " + prefix + r.Pattern
}
