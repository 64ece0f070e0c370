package simulator

import (
	"time"

	"github.com/amirasaad/stakesim/pkg/projection"
	"github.com/google/uuid"
)

// Chart is the rendered projection of a session's latest settled state.
type Chart struct {
	SessionID    uuid.UUID `json:"session_id"`
	EventID      uuid.UUID `json:"event_id"`
	CryptoID     string    `json:"crypto_id"`
	CryptoName   string    `json:"crypto_name"`
	CryptoSymbol string    `json:"crypto_symbol"`
	Currency     string    `json:"currency"`
	Available    bool      `json:"available"`
	// Message replaces the chart when the pair has no price.
	Message     string             `json:"message,omitempty"`
	Price       float64            `json:"price"`
	PriceLabel  string             `json:"price_label,omitempty"`
	APY         float64            `json:"apy"`
	APYLabel    string             `json:"apy_label"`
	GrowthLabel string             `json:"growth_label,omitempty"`
	Projection  *projection.Result `json:"projection,omitempty"`
	Ticks       []string           `json:"ticks,omitempty"`
	EventAt     time.Time          `json:"event_at"`
	ComputedAt  time.Time          `json:"computed_at"`
}
