package initializer

import (
	"context"
	"fmt"

	"github.com/amirasaad/stakesim/infra"
	preferencerepo "github.com/amirasaad/stakesim/infra/repository/preference"
	assetfixtures "github.com/amirasaad/stakesim/internal/fixtures/assets"
	"github.com/amirasaad/stakesim/pkg/app"
	"github.com/amirasaad/stakesim/pkg/config"
)

// InitializeDependencies initializes all the application dependencies
func InitializeDependencies(cfg *config.App) (
	deps *app.Deps,
	err error,
) {
	deps = &app.Deps{}
	logger := SetupLogger(cfg.Log)
	deps.Logger = logger

	// Load the asset catalog from the embedded CSV
	deps.Catalog, err = assetfixtures.LoadCatalog("")
	if err != nil {
		return nil, fmt.Errorf("failed to load asset catalog: %w", err)
	}
	logger.Info("Loaded asset catalog", "assets", len(deps.Catalog.Assets()))

	deps.PriceProvider, err = initPriceProvider(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize price provider: %w", err)
	}

	priceCache, closeCache := initPriceCache(cfg, logger)
	deps.PriceCache = priceCache

	bus, closeBus, err := initEventBus(cfg, logger)
	if err != nil {
		if closeCache != nil {
			_ = closeCache()
		}
		return nil, fmt.Errorf("failed to initialize event bus: %w", err)
	}
	deps.EventBus = bus

	// Bus first so nothing is emitted into a closed cache
	if closeBus != nil {
		deps.Closers = append(deps.Closers, closeBus)
	}
	if closeCache != nil {
		deps.Closers = append(deps.Closers, closeCache)
	}

	// Preferences degrade to defaults without a database
	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Warn("Preferences store unavailable", "error", err)
		return deps, nil
	}
	if err := preferencerepo.Migrate(db.WithContext(context.Background())); err != nil {
		logger.Warn("Failed to migrate preferences table", "error", err)
		return deps, nil
	}
	deps.PreferenceRepo = preferencerepo.New(db)
	if sqlDB, err := db.DB(); err == nil {
		deps.Closers = append(deps.Closers, sqlDB.Close)
	}

	return deps, nil
}
