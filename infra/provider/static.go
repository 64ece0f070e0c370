package provider

import (
	"context"
	"sync"

	"github.com/amirasaad/stakesim/pkg/provider"
)

// StaticProvider serves a fixed price set. It backs offline runs of the
// terminal client and tests that need a real provider without a network.
type StaticProvider struct {
	mu     sync.RWMutex
	quotes provider.Quotes
	err    error
}

// NewStaticProvider copies quotes into a new provider.
func NewStaticProvider(quotes provider.Quotes) *StaticProvider {
	p := &StaticProvider{}
	p.Set(quotes)
	return p
}

// DefaultStaticQuotes is a plausible snapshot of the catalog's prices.
func DefaultStaticQuotes() provider.Quotes {
	return provider.Quotes{
		"bitcoin":     {"usd": 67000, "eur": 61800},
		"ethereum":    {"usd": 3500, "eur": 3230},
		"cardano":     {"usd": 0.45, "eur": 0.415},
		"solana":      {"usd": 150, "eur": 138},
		"polkadot":    {"usd": 7, "eur": 6.45},
		"cosmos":      {"usd": 8.5, "eur": 7.85},
		"avalanche-2": {"usd": 35, "eur": 32.3},
	}
}

// Set replaces the served quotes.
func (p *StaticProvider) Set(quotes provider.Quotes) {
	cp := make(provider.Quotes, len(quotes))
	for coin, byFiat := range quotes {
		inner := make(map[string]float64, len(byFiat))
		for fiat, v := range byFiat {
			inner[fiat] = v
		}
		cp[coin] = inner
	}
	p.mu.Lock()
	p.quotes = cp
	p.mu.Unlock()
}

// Fail makes every following fetch return err until Fail(nil) is called.
func (p *StaticProvider) Fail(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

// FetchPrices implements provider.PriceProvider.
func (p *StaticProvider) FetchPrices(
	ctx context.Context,
	coinIDs, fiats []string,
) (provider.Quotes, error) {
	if err := ctx.Err(); err != nil {
		return nil, &provider.FetchError{Provider: p.Name(), Kind: provider.ErrorKindNetwork, Err: err}
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.err != nil {
		return nil, p.err
	}

	out := make(provider.Quotes)
	for _, coin := range coinIDs {
		byFiat, ok := p.quotes[coin]
		if !ok {
			continue
		}
		inner := make(map[string]float64)
		for _, fiat := range fiats {
			if v, ok := byFiat[fiat]; ok {
				inner[fiat] = v
			}
		}
		if len(inner) > 0 {
			out[coin] = inner
		}
	}
	return out, nil
}

// Name implements provider.PriceProvider.
func (p *StaticProvider) Name() string {
	return "static"
}

var _ provider.PriceProvider = (*StaticProvider)(nil)
