// Package di provides dependency injection configuration for the Curio server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/curioapp/curio-server/internal/config"
	"github.com/curioapp/curio-server/internal/logger"
	"github.com/curioapp/curio-server/internal/store"
	"github.com/curioapp/curio-server/internal/store/sqlite"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, ProvideConfig)
	do.Provide(injector, ProvideLogger)

	// Database layer
	do.Provide(injector, ProvideStore)

	return injector
}

// Bootstrap triggers initialization of the core services and returns the
// logger so commands can report their own failures through it.
func Bootstrap(injector *do.RootScope) (*logger.Logger, error) {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return nil, err
	}
	log, err := do.Invoke[*logger.Logger](injector)
	if err != nil {
		return nil, err
	}
	if _, err := do.Invoke[*StoreHandle](injector); err != nil {
		return nil, err
	}

	return log, nil
}

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting Curio Server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"database_path", cfg.Database.Path,
	)

	return log, nil
}

// StoreHandle wraps the catalog store for lifecycle management.
type StoreHandle struct {
	Store store.MediaStore
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Store.Close()
}

// ProvideStore provides the SQLite-backed catalog store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	limits := store.PageLimits{
		Default: cfg.Query.DefaultLimit,
		Max:     cfg.Query.MaxLimit,
	}
	s, err := sqlite.Open(cfg.Database.Path, log.Logger, limits)
	if err != nil {
		return nil, err
	}

	log.Info("Catalog store opened",
		"path", cfg.Database.Path,
		"default_limit", limits.Default,
		"max_limit", limits.Max,
	)
	return &StoreHandle{Store: s}, nil
}
