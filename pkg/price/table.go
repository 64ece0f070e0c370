package price

import (
	"math"
	"strings"
	"time"

	"github.com/amirasaad/stakesim/pkg/provider"
)

// Table is an immutable coin -> fiat -> price mapping. Entries that are
// missing, non-positive or not finite are unavailable and are never stored.
type Table struct {
	entries   map[string]map[string]float64
	fetchedAt time.Time
	source    string
}

// NewTable copies quotes, dropping unusable prices.
func NewTable(quotes provider.Quotes, fetchedAt time.Time, source string) *Table {
	entries := make(map[string]map[string]float64, len(quotes))
	for coin, byFiat := range quotes {
		inner := make(map[string]float64, len(byFiat))
		for fiat, p := range byFiat {
			if !Usable(p) {
				continue
			}
			inner[strings.ToLower(fiat)] = p
		}
		if len(inner) > 0 {
			entries[coin] = inner
		}
	}
	return &Table{entries: entries, fetchedAt: fetchedAt, source: source}
}

// Usable reports whether p can be used to convert amounts.
func Usable(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}

// Price looks up a pair. ok is false when the pair is unavailable.
// A nil table has no prices.
func (t *Table) Price(coinID, fiat string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	byFiat, ok := t.entries[coinID]
	if !ok {
		return 0, false
	}
	p, ok := byFiat[strings.ToLower(fiat)]
	return p, ok
}

// Quotes returns a copy of the table contents.
func (t *Table) Quotes() provider.Quotes {
	if t == nil {
		return provider.Quotes{}
	}
	out := make(provider.Quotes, len(t.entries))
	for coin, byFiat := range t.entries {
		inner := make(map[string]float64, len(byFiat))
		for fiat, p := range byFiat {
			inner[fiat] = p
		}
		out[coin] = inner
	}
	return out
}

// Len is the number of coins with at least one price.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

func (t *Table) FetchedAt() time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.fetchedAt
}

func (t *Table) Source() string {
	if t == nil {
		return ""
	}
	return t.source
}

// SamePrices reports whether both tables hold identical pairs.
func (t *Table) SamePrices(o *Table) bool {
	if t.Len() != o.Len() {
		return false
	}
	if t == nil {
		return true
	}
	for coin, byFiat := range t.entries {
		other, ok := o.entries[coin]
		if !ok || len(other) != len(byFiat) {
			return false
		}
		for fiat, p := range byFiat {
			if q, ok := other[fiat]; !ok || q != p {
				return false
			}
		}
	}
	return true
}
