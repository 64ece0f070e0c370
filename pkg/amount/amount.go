// Package amount keeps a fiat amount and a crypto amount consistent through a
// price. Exactly one of them is authoritative at a time; the other is derived.
package amount

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidNumericInput is returned for cleared, non-numeric or negative
// amount text.
var ErrInvalidNumericInput = errors.New("invalid numeric input")

// Field names one of the two amounts.
type Field int

const (
	Fiat Field = iota
	Crypto
)

func (f Field) String() string {
	switch f {
	case Fiat:
		return "fiat"
	case Crypto:
		return "crypto"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

func (f Field) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Field) UnmarshalText(b []byte) error {
	v, err := ParseField(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// ParseField accepts "fiat" or "crypto", case-insensitive.
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fiat":
		return Fiat, nil
	case "crypto":
		return Crypto, nil
	}
	return 0, fmt.Errorf("unknown amount field %q", s)
}

// Price is a lookup result: either a known value or unavailable.
type Price struct {
	Value float64
	OK    bool
}

func Known(v float64) Price { return Price{Value: v, OK: true} }

func Unavailable() Price { return Price{} }

// Usable reports whether amounts may be converted through p.
func (p Price) Usable() bool {
	return p.OK && p.Value > 0 && !math.IsNaN(p.Value) && !math.IsInf(p.Value, 0)
}

// State is one form session's amounts. LastEdited names the authoritative
// field. Invalid is set while that field holds unparseable input; nothing is
// derived until a valid edit or a Reset clears it.
type State struct {
	AmountInFiat   float64 `json:"amount_in_fiat"`
	AmountInCrypto float64 `json:"amount_in_crypto"`
	LastEdited     Field   `json:"last_edited"`
	Invalid        bool    `json:"invalid,omitempty"`
}

// NewState starts with a fiat amount and derives crypto when price is usable.
func NewState(fiat float64, price Price) State {
	return Apply(State{LastEdited: Fiat}, EditFiat{Value: fiat, Price: price})
}

// Event is a transition input.
type Event interface {
	apply(State) State
}

// EditFiat is a user edit of the fiat amount. A NaN, infinite or negative
// Value is invalid input: authority still moves to Fiat, the amount is kept.
type EditFiat struct {
	Value float64
	Price Price
}

// EditCrypto is the symmetric edit of the crypto amount.
type EditCrypto struct {
	Value float64
	Price Price
}

// PriceChanged re-derives the non-authoritative field. LastEdited is kept.
type PriceChanged struct {
	Price Price
}

// Reset follows a coin or fiat switch: fiat becomes authoritative and crypto
// is derived at the new pair's price.
type Reset struct {
	Price Price
}

// Apply runs one transition. It never calls back into itself.
func Apply(s State, e Event) State {
	if e == nil {
		return s
	}
	return e.apply(s)
}

func (e EditFiat) apply(s State) State {
	s.LastEdited = Fiat
	s.Invalid = !validAmount(e.Value)
	if s.Invalid {
		return s
	}
	s.AmountInFiat = e.Value
	return derive(s, e.Price)
}

func (e EditCrypto) apply(s State) State {
	s.LastEdited = Crypto
	s.Invalid = !validAmount(e.Value)
	if s.Invalid {
		return s
	}
	s.AmountInCrypto = e.Value
	return derive(s, e.Price)
}

func (e PriceChanged) apply(s State) State {
	return derive(s, e.Price)
}

func (e Reset) apply(s State) State {
	s.LastEdited = Fiat
	s.Invalid = false
	return derive(s, e.Price)
}

// derive overwrites only the field not named by LastEdited.
func derive(s State, p Price) State {
	if s.Invalid || !p.Usable() {
		return s
	}
	switch s.LastEdited {
	case Fiat:
		if validAmount(s.AmountInFiat) {
			s.AmountInCrypto = s.AmountInFiat / p.Value
		}
	case Crypto:
		if validAmount(s.AmountInCrypto) {
			s.AmountInFiat = s.AmountInCrypto * p.Value
		}
	}
	return s
}

func validAmount(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Authoritative returns the value of the last edited field.
func (s State) Authoritative() float64 {
	if s.LastEdited == Crypto {
		return s.AmountInCrypto
	}
	return s.AmountInFiat
}

// Consistent reports whether fiat ≈ crypto * price within a relative
// tolerance. It is vacuously true when price is not usable.
func (s State) Consistent(p Price, tol float64) bool {
	if !p.Usable() {
		return true
	}
	want := s.AmountInCrypto * p.Value
	diff := math.Abs(want - s.AmountInFiat)
	scale := math.Max(math.Abs(s.AmountInFiat), 1)
	return diff <= tol*scale
}

// ParseAmount reads amount text as typed into a form input. Leading zeros
// and surrounding spaces are accepted.
func ParseAmount(text string) (float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidNumericInput)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumericInput, text)
	}
	if !validAmount(v) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumericInput, text)
	}
	return v, nil
}
