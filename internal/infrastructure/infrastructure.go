// Package infrastructure provides core service initialization for application startup.
// It assembles the shared systems (logging, database, storage, guard, auth, tracing)
// that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/verdant/internal/config"
	"github.com/JaimeStill/verdant/pkg/auth"
	"github.com/JaimeStill/verdant/pkg/database"
	"github.com/JaimeStill/verdant/pkg/guard"
	"github.com/JaimeStill/verdant/pkg/lifecycle"
	"github.com/JaimeStill/verdant/pkg/storage"
	"github.com/JaimeStill/verdant/pkg/telemetry"
)

// Infrastructure holds the core systems required by all domain modules.
// Storage is nil unless images are fetched from blob storage.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Guard     *guard.Executor
	Auth      auth.System
	Telemetry telemetry.System
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	tel, err := telemetry.New(&cfg.Telemetry, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init failed: %w", err)
	}

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	var store storage.System
	if cfg.Source.Kind == config.SourceBlob {
		store, err = storage.New(&cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
	}

	exec, err := guard.New(
		cfg.Guard.RetryPolicy(),
		cfg.Guard.TimeoutPolicy(),
		logger,
		guard.WithMaxBodyBytes(cfg.Guard.MaxBodyBytes()),
	)
	if err != nil {
		return nil, fmt.Errorf("guard init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Guard:     exec,
		Auth:      auth.New(lc.Context(), &cfg.Auth, logger),
		Telemetry: tel,
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Telemetry.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("telemetry start failed: %w", err)
	}
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}
	return nil
}

// Shutdown flushes telemetry outside the lifecycle, for callers that exit
// before Start was reached.
func (i *Infrastructure) Shutdown(ctx context.Context) error {
	return i.Telemetry.Shutdown(ctx)
}
