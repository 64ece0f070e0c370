// Package asset holds the static reference data of the simulator: the
// stakeable coins and the fiat currencies prices are quoted in.
package asset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownAsset = errors.New("unknown asset")
	ErrUnknownFiat  = errors.New("unknown fiat currency")
	ErrEmptyCatalog = errors.New("asset catalog is empty")
)

// Asset is a stakeable coin. ID is the price provider's coin identifier.
type Asset struct {
	ID         string  `json:"id"`
	Symbol     string  `json:"symbol"`
	Name       string  `json:"name"`
	DefaultAPY float64 `json:"default_apy"`
}

// Label renders the asset the way the coin selector shows it.
func (a Asset) Label() string {
	return fmt.Sprintf("%s — %s", strings.ToUpper(a.Symbol), a.Name)
}

// FiatCode is a lower-case fiat currency code used as a price lookup key.
type FiatCode string

const (
	USD FiatCode = "usd"
	EUR FiatCode = "eur"
)

// Fiats is the closed set of supported fiat currencies.
var Fiats = []FiatCode{USD, EUR}

// DefaultFiat applies when no preference is stored.
const DefaultFiat = USD

// ParseFiat normalizes s and checks it against the supported set.
func ParseFiat(s string) (FiatCode, error) {
	code := FiatCode(strings.ToLower(strings.TrimSpace(s)))
	for _, f := range Fiats {
		if f == code {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFiat, s)
}

func (f FiatCode) String() string { return string(f) }

// Upper is the display form, e.g. "USD".
func (f FiatCode) Upper() string { return strings.ToUpper(string(f)) }

// Symbol returns the currency sign used in chart labels.
func (f FiatCode) Symbol() string {
	switch f {
	case EUR:
		return "€"
	default:
		return "$"
	}
}
