// Package events defines the messages carried by the event bus.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is anything that can travel on the bus.
type Event interface {
	Type() string
}

// EventType represents the type of an event in the system.
type EventType string

const (
	EventTypeSimulationChanged EventType = "Simulation.Changed"
)

// String returns the string representation of the event type.
func (et EventType) String() string {
	return string(et)
}

// EventTypes builds empty events by type, for decoding bus payloads.
var EventTypes = map[string]func() Event{
	EventTypeSimulationChanged.String(): func() Event { return &ChangeEvent{} },
}

// ChangeEvent is emitted by a form session once per settled state.
type ChangeEvent struct {
	ID             uuid.UUID `json:"id"`
	SessionID      uuid.UUID `json:"session_id"`
	AmountInFiat   float64   `json:"amount_in_fiat"`
	AmountInCrypto float64   `json:"amount_in_crypto"`
	APY            float64   `json:"apy"`
	PeriodDays     int       `json:"period_days"`
	CryptoID       string    `json:"crypto_id"`
	CryptoSymbol   string    `json:"crypto_symbol"`
	Currency       string    `json:"currency"`
	// Price is the pair's price at emission. PriceAvailable is false when the
	// pair had no usable price; the chart then shows a message instead.
	Price          float64   `json:"price"`
	PriceAvailable bool      `json:"price_available"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func (e *ChangeEvent) Type() string { return EventTypeSimulationChanged.String() }

// SameSettledState reports whether two events describe the same inputs,
// ignoring identity and timestamps.
func (e *ChangeEvent) SameSettledState(o *ChangeEvent) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.SessionID == o.SessionID &&
		e.AmountInFiat == o.AmountInFiat &&
		e.AmountInCrypto == o.AmountInCrypto &&
		e.APY == o.APY &&
		e.PeriodDays == o.PeriodDays &&
		e.CryptoID == o.CryptoID &&
		e.CryptoSymbol == o.CryptoSymbol &&
		e.Currency == o.Currency &&
		e.Price == o.Price &&
		e.PriceAvailable == o.PriceAvailable
}
