package provider

import (
	"context"
)

// Quotes maps coin id to fiat code to price (fiat per one coin).
type Quotes map[string]map[string]float64

// PriceProvider fetches spot prices for a batch of coins in a batch of fiat
// currencies with a single upstream request.
type PriceProvider interface {
	// FetchPrices returns whatever the upstream knows for the requested
	// pairs. Missing pairs are simply absent from the result. Failures are
	// reported as *FetchError.
	FetchPrices(ctx context.Context, coinIDs, fiats []string) (Quotes, error)

	// Name returns the provider's name for logging and identification.
	Name() string
}
