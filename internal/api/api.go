// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/JaimeStill/verdant/internal/config"
	"github.com/JaimeStill/verdant/internal/infrastructure"
	"github.com/JaimeStill/verdant/pkg/middleware"
	"github.com/JaimeStill/verdant/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// Every route behind the module requires a verified bearer token.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)

	domain, err := NewDomain(runtime)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime.Logger)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(
		middleware.CORS(&cfg.API.CORS),
		middleware.Logger(runtime.Logger),
		func(next http.Handler) http.Handler {
			return otelhttp.NewHandler(next, "api")
		},
		runtime.Auth.Middleware(),
	)

	return m, nil
}
