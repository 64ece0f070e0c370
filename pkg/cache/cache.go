package cache

import (
	"context"
	"time"

	"github.com/amirasaad/stakesim/pkg/provider"
)

// PriceSnapshot is the last successfully fetched price set.
type PriceSnapshot struct {
	Quotes    provider.Quotes `json:"quotes"`
	FetchedAt time.Time       `json:"fetched_at"`
	Source    string          `json:"source"`
}

// PriceCache persists price snapshots between process runs.
// Get returns (nil, nil) on a miss.
type PriceCache interface {
	Get(ctx context.Context, key string) (*PriceSnapshot, error)
	Set(ctx context.Context, key string, snap *PriceSnapshot, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
