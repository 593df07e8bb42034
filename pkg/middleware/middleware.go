// Package middleware holds the HTTP middleware stacked in front of the
// diagnosis API: CORS, request logging, and the composition helpers.
package middleware

import "net/http"

// Func wraps a handler with additional behavior.
type Func func(http.Handler) http.Handler

// System manages an ordered stack of HTTP middleware. The first Func added
// is the outermost.
type System interface {
	Use(mws ...Func)
	Apply(handler http.Handler) http.Handler
}

type stack struct {
	mws []Func
}

// New creates an empty middleware System.
func New() System {
	return &stack{}
}

func (s *stack) Use(mws ...Func) {
	s.mws = append(s.mws, mws...)
}

func (s *stack) Apply(handler http.Handler) http.Handler {
	return Chain(handler, s.mws...)
}

// Chain wraps handler so that mws[0] runs first.
func Chain(handler http.Handler, mws ...Func) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler
}
