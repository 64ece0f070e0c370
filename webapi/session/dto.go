package session

import (
	"github.com/amirasaad/stakesim/pkg/asset"
	"github.com/amirasaad/stakesim/pkg/form"
	"github.com/amirasaad/stakesim/pkg/money"
	"github.com/google/uuid"
)

// CreateRequest overrides the session defaults. Every field is optional.
type CreateRequest struct {
	Coin       string   `json:"coin"`
	Currency   string   `json:"currency"`
	PeriodDays int      `json:"period_days" validate:"omitempty,gte=1"`
	Amount     *float64 `json:"amount" validate:"omitempty,gte=0"`
}

// AmountRequest carries the raw text typed into one of the amount inputs.
type AmountRequest struct {
	Field string `json:"field" validate:"required,oneof=fiat crypto"`
	Value string `json:"value"`
}

type CoinRequest struct {
	Coin string `json:"coin" validate:"required"`
}

type CurrencyRequest struct {
	Currency string `json:"currency" validate:"required"`
}

type PeriodRequest struct {
	PeriodDays int `json:"period_days" validate:"required"`
}

// SessionResponse is the session state with display labels.
type SessionResponse struct {
	ID             uuid.UUID `json:"id"`
	CryptoID       string    `json:"crypto_id"`
	CryptoSymbol   string    `json:"crypto_symbol"`
	CryptoName     string    `json:"crypto_name"`
	APY            float64   `json:"apy"`
	Currency       string    `json:"currency"`
	PeriodDays     int       `json:"period_days"`
	PeriodLabel    string    `json:"period_label"`
	AmountInFiat   float64   `json:"amount_in_fiat"`
	AmountInCrypto float64   `json:"amount_in_crypto"`
	LastEdited     string    `json:"last_edited"`
	FiatLabel      string    `json:"fiat_label"`
	CryptoLabel    string    `json:"crypto_label"`
	Price          *float64  `json:"price,omitempty"`
	PriceLabel     string    `json:"price_label,omitempty"`
	PriceAvailable bool      `json:"price_available"`
	Pending        bool      `json:"pending"`
	InputError     string    `json:"input_error,omitempty"`
	Emitted        int       `json:"emitted"`
}

// ToResponse converts a form snapshot to a response DTO
func ToResponse(s form.Snapshot) SessionResponse {
	resp := SessionResponse{
		ID:             s.SessionID,
		CryptoID:       s.Coin.ID,
		CryptoSymbol:   s.Coin.Symbol,
		CryptoName:     s.Coin.Name,
		APY:            s.Coin.DefaultAPY,
		Currency:       s.Fiat.String(),
		PeriodDays:     s.PeriodDays,
		PeriodLabel:    asset.PeriodLabel(s.PeriodDays),
		AmountInFiat:   s.State.AmountInFiat,
		AmountInCrypto: s.State.AmountInCrypto,
		LastEdited:     s.State.LastEdited.String(),
		FiatLabel:      money.Format(s.State.AmountInFiat, s.Fiat),
		CryptoLabel:    money.FormatCrypto(s.State.AmountInCrypto, s.Coin.Symbol),
		PriceAvailable: s.PriceAvailable,
		Pending:        s.Pending,
		InputError:     s.InputError,
		Emitted:        s.Emitted,
	}
	if s.PriceAvailable {
		p := s.Price
		resp.Price = &p
		resp.PriceLabel = money.Format(p, s.Fiat)
	}
	return resp
}
