package initializer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	infra_cache "github.com/amirasaad/stakesim/infra/cache"
	infra_eventbus "github.com/amirasaad/stakesim/infra/eventbus"
	infra_provider "github.com/amirasaad/stakesim/infra/provider"
	"github.com/amirasaad/stakesim/pkg/cache"
	"github.com/amirasaad/stakesim/pkg/config"
	"github.com/amirasaad/stakesim/pkg/eventbus"
	"github.com/amirasaad/stakesim/pkg/events"
	"github.com/amirasaad/stakesim/pkg/provider"
)

const pingTimeout = 3 * time.Second

// initPriceProvider selects the quote source named by PRICES_PROVIDER.
func initPriceProvider(cfg *config.App, logger *slog.Logger) (provider.PriceProvider, error) {
	name := "coingecko"
	if cfg.Prices != nil && cfg.Prices.Provider != "" {
		name = cfg.Prices.Provider
	}
	switch name {
	case "coingecko":
		if cfg.CoinGecko == nil {
			return nil, fmt.Errorf("coingecko provider: missing configuration")
		}
		return infra_provider.NewCoinGeckoProvider(cfg.CoinGecko, logger), nil
	case "static":
		logger.Warn("Using static prices; quotes will not change")
		return infra_provider.NewStaticProvider(infra_provider.DefaultStaticQuotes()), nil
	default:
		return nil, fmt.Errorf("unsupported price provider: %q", name)
	}
}

// initPriceCache returns a Redis cache when REDIS_URL is set and reachable,
// otherwise an in-process one. The closer is nil for the in-process cache.
func initPriceCache(cfg *config.App, logger *slog.Logger) (cache.PriceCache, func() error) {
	if cfg.Redis == nil || cfg.Redis.URL == "" {
		return infra_cache.NewMemoryCache(), nil
	}
	prefix := ""
	if cfg.Prices != nil {
		prefix = cfg.Prices.CachePrefix
	}
	rc, err := infra_cache.NewRedisPriceCache(cfg.Redis, prefix, logger)
	if err != nil {
		logger.Warn("Redis price cache unavailable, using memory", "error", err)
		return infra_cache.NewMemoryCache(), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		logger.Warn("Redis price cache unreachable, using memory", "error", err)
		return infra_cache.NewMemoryCache(), nil
	}
	return rc, rc.Close
}

// initEventBus builds the bus named by EVENT_BUS_DRIVER. A redis bus that
// cannot connect falls back to the in-process async bus.
func initEventBus(cfg *config.App, logger *slog.Logger) (eventbus.Bus, func() error, error) {
	driver := "memory"
	if cfg.EventBus != nil && cfg.EventBus.Driver != "" {
		driver = cfg.EventBus.Driver
	}

	memoryAsync := func() (eventbus.Bus, func() error, error) {
		b := infra_eventbus.NewWithMemoryAsync(logger)
		return b, func() error { b.Close(); return nil }, nil
	}

	switch driver {
	case "memory":
		return memoryAsync()
	case "memory-sync":
		return infra_eventbus.NewWithMemory(logger), nil, nil
	case "redis":
		if cfg.Redis == nil || cfg.Redis.URL == "" {
			return nil, nil, fmt.Errorf("redis event bus requires REDIS_URL")
		}
		b, err := infra_eventbus.NewWithRedis(cfg.Redis, events.EventTypes, logger)
		if err != nil {
			logger.Warn("Redis event bus unavailable, using memory", "error", err)
			return memoryAsync()
		}
		return b, b.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported event bus driver: %q", driver)
	}
}
