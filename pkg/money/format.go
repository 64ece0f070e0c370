// Package money renders fiat and crypto amounts for display.
//
// Values are rounded with shopspring/decimal so that display never shows
// binary floating point artifacts such as 0.30000000000000004.
package money

import (
	"math"
	"strings"

	"github.com/amirasaad/stakesim/pkg/asset"
	"github.com/shopspring/decimal"
)

// CryptoDecimals is the precision used for crypto amounts.
const CryptoDecimals = 8

// Format renders v as a currency amount with two decimals and thousands
// separators, e.g. "$50,000.00" or "-€12.50".
func Format(v float64, fiat asset.FiatCode) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fiat.Symbol() + "–"
	}
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	return sign + fiat.Symbol() + group(d.StringFixed(2))
}

// Compact renders an axis tick label: "$950", "$50k", "$1.2m".
func Compact(v float64, fiat asset.FiatCode) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fiat.Symbol() + "–"
	}
	d := decimal.NewFromFloat(v)
	switch {
	case v >= 1_000_000:
		return fiat.Symbol() + trimZeros(d.Div(decimal.NewFromInt(1_000_000)).StringFixed(1)) + "m"
	case v >= 1_000:
		return fiat.Symbol() + d.Div(decimal.NewFromInt(1_000)).StringFixed(0) + "k"
	default:
		return fiat.Symbol() + trimZeros(d.Round(2).String())
	}
}

// FormatCrypto renders a crypto amount with up to eight decimals and the
// coin symbol, e.g. "0.74626866 BTC".
func FormatCrypto(v float64, symbol string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "– " + strings.ToUpper(symbol)
	}
	d := decimal.NewFromFloat(v).Round(CryptoDecimals)
	return trimZeros(d.StringFixed(CryptoDecimals)) + " " + strings.ToUpper(symbol)
}

// Round2 rounds v to cents for JSON output.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// FormatPercent renders an APY like "12%" or "7.5%".
func FormatPercent(v float64) string {
	return trimZeros(decimal.NewFromFloat(v).Round(2).String()) + "%"
}

// group inserts thousands separators into the integer part of s.
func group(s string) string {
	intPart, frac, hasFrac := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
