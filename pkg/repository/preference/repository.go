package preference

import (
	"context"

	"github.com/amirasaad/stakesim/pkg/preference"
)

// Repository persists client preferences.
type Repository interface {
	// Get returns nil, nil when the client has nothing stored.
	Get(ctx context.Context, clientID string) (*preference.Preferences, error)
	Upsert(ctx context.Context, p preference.Preferences) error
}
