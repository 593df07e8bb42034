package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JaimeStill/verdant/internal/api"
	"github.com/JaimeStill/verdant/internal/config"
	"github.com/JaimeStill/verdant/internal/infrastructure"
	"github.com/JaimeStill/verdant/pkg/handlers"
	"github.com/JaimeStill/verdant/pkg/module"
)

type Modules struct {
	API *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{
		API: apiModule,
	}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if pending := infra.Lifecycle.Pending(); len(pending) > 0 {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":  "not ready",
				"pending": pending,
			})
			return
		}
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	router.HandleNative("GET /metrics", promhttp.Handler().ServeHTTP)

	return router
}
