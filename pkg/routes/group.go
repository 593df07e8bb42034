package routes

import "net/http"

// Group collects routes under a common path prefix. Children extend the
// prefix of their parent.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register adds every route in groups to mux and returns the full patterns
// in registration order. ServeMux panics on a conflicting pattern.
func Register(mux *http.ServeMux, groups ...Group) []string {
	var patterns []string
	for _, group := range groups {
		patterns = registerGroup(mux, "", group, patterns)
	}
	return patterns
}

func registerGroup(mux *http.ServeMux, parentPrefix string, group Group, patterns []string) []string {
	fullPrefix := parentPrefix + group.Prefix
	for _, route := range group.Routes {
		pattern := route.under(fullPrefix)
		mux.HandleFunc(pattern, route.Handler)
		patterns = append(patterns, pattern)
	}
	for _, child := range group.Children {
		patterns = registerGroup(mux, fullPrefix, child, patterns)
	}
	return patterns
}
