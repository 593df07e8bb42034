package api

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/verdant/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, logger *slog.Logger) {
	patterns := routes.Register(
		mux,
		domain.Diagnoses.Handler().Routes(),
	)
	logger.Debug("routes registered", "count", len(patterns), "patterns", patterns)
}
