package module

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/JaimeStill/verdant/pkg/handlers"
)

// Router dispatches requests to mounted modules by path prefix, falling back
// to a native ServeMux for operational routes. Paths nothing matches get a
// JSON 404 in the same shape the API modules use for errors.
type Router struct {
	modules map[string]*Module
	native  *http.ServeMux
}

// NewRouter creates a Router with an empty module map and a native mux whose
// "/" pattern is reserved for the JSON 404.
func NewRouter() *Router {
	native := http.NewServeMux()
	native.HandleFunc("/", notFound)

	return &Router{
		modules: make(map[string]*Module),
		native:  native,
	}
}

func notFound(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
}

// HandleNative registers a handler on the native fallback mux.
func (r *Router) HandleNative(pattern string, handler http.HandlerFunc) {
	r.native.HandleFunc(pattern, handler)
}

// Mount registers a module to handle requests matching its prefix.
// Panics if the prefix is already mounted.
func (r *Router) Mount(m *Module) {
	if _, ok := r.modules[m.prefix]; ok {
		panic(fmt.Sprintf("module prefix already mounted: %s", m.prefix))
	}
	r.modules[m.prefix] = m
}

// ServeHTTP dispatches to the matching module or falls back to the native mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	path := normalizePath(req)
	prefix := extractPrefix(path)

	if m, ok := r.modules[prefix]; ok {
		m.Serve(w, req)
		return
	}

	r.native.ServeHTTP(w, req)
}

func extractPrefix(path string) string {
	parts := strings.SplitN(path, "/", 3)
	if len(parts) >= 2 {
		return "/" + parts[1]
	}
	return path
}

func normalizePath(req *http.Request) string {
	path := req.URL.Path
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
		req.URL.Path = path
	}
	return path
}
