package api

import (
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/JaimeStill/verdant/internal/config"
	"github.com/JaimeStill/verdant/internal/infrastructure"
	"github.com/JaimeStill/verdant/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Agent      gaconfig.AgentConfig
	Source     config.SourceConfig
	Captioner  config.CaptionerConfig
	MaxImage   int64
	Pagination pagination.Config
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		Agent:          cfg.Agent,
		Source:         cfg.Source,
		Captioner:      cfg.Captioner,
		MaxImage:       cfg.Guard.MaxBodyBytes(),
		Pagination:     cfg.API.Pagination,
	}
}
