package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/stakesim/pkg/asset"
	"github.com/amirasaad/stakesim/pkg/cache"
	"github.com/amirasaad/stakesim/pkg/config"
	"github.com/amirasaad/stakesim/pkg/eventbus"
	"github.com/amirasaad/stakesim/pkg/price"
	"github.com/amirasaad/stakesim/pkg/provider"
	preferencerepo "github.com/amirasaad/stakesim/pkg/repository/preference"
	preferencesvc "github.com/amirasaad/stakesim/pkg/service/preference"
	"github.com/amirasaad/stakesim/pkg/service/simulator"
)

// priceCacheKey is the cache entry holding the last good price table.
const priceCacheKey = "latest"

// Deps contains all the dependencies needed to build the App
type Deps struct {
	Catalog        *asset.Catalog
	PriceProvider  provider.PriceProvider
	PriceCache     cache.PriceCache
	EventBus       eventbus.Bus
	PreferenceRepo preferencerepo.Repository
	Logger         *slog.Logger
	// Closers release infrastructure after the App is closed, in order.
	Closers []func() error
}

type App struct {
	Deps              *Deps
	Config            *config.App
	Prices            *price.Store
	SimulatorService  *simulator.Service
	PreferenceService *preferencesvc.Service
}

func New(deps *Deps, cfg *config.App) *App {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{
		Deps:   deps,
		Config: cfg,
	}

	opts := []price.Option{price.WithLogger(logger)}
	if cfg.Prices != nil {
		opts = append(opts, price.WithRefreshInterval(cfg.Prices.RefreshInterval))
		if deps.PriceCache != nil {
			opts = append(opts, price.WithCache(deps.PriceCache, priceCacheKey, cfg.Prices.CacheTTL))
		}
	}
	app.Prices = price.NewStore(
		deps.PriceProvider,
		deps.Catalog.IDs(),
		deps.Catalog.FiatStrings(),
		opts...,
	)

	var simCfg config.Simulator
	if cfg.Simulator != nil {
		simCfg = *cfg.Simulator
	}
	app.SimulatorService = simulator.New(deps.Catalog, app.Prices, deps.EventBus, simCfg, logger)
	app.PreferenceService = preferencesvc.New(deps.PreferenceRepo, logger)
	app.setupEventBus()
	return app
}

// Start seeds and starts the price store and the session sweeper.
func (a *App) Start(ctx context.Context) {
	a.Prices.Start(ctx)
	if a.Config.Simulator != nil && a.Config.Simulator.SessionTTL > 0 {
		a.SimulatorService.StartSweeper(sweepInterval(a.Config.Simulator.SessionTTL))
	}
}

// Close stops sessions and the price loop, then releases infrastructure.
func (a *App) Close() {
	a.SimulatorService.Close()
	a.Prices.Dispose()
	for _, c := range a.Deps.Closers {
		if err := c(); err != nil && a.Deps.Logger != nil {
			a.Deps.Logger.Warn("Failed to release dependency", "error", err)
		}
	}
}

func sweepInterval(ttl time.Duration) time.Duration {
	if d := ttl / 4; d > time.Second {
		return d
	}
	return time.Second
}
