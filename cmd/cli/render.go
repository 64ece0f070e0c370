package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/amirasaad/stakesim/pkg/asset"
	"github.com/amirasaad/stakesim/pkg/form"
	"github.com/amirasaad/stakesim/pkg/money"
	"github.com/amirasaad/stakesim/pkg/service/simulator"
	"github.com/fatih/color"
	"golang.org/x/term"
)

const (
	defaultWidth = 80
	minBarWidth  = 10
	// label, value and padding columns around the bar
	chartChrome  = 32
)

var (
	headerStyle    = color.New(color.Bold)
	principalStyle = color.New(color.FgHiBlack)
	growthStyle    = color.New(color.FgGreen)
	warnStyle      = color.New(color.FgYellow)
	errorStyle     = color.New(color.FgRed)
)

// terminalWidth returns the width of out when it is a terminal.
func terminalWidth(out io.Writer) int {
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			return w
		}
	}
	return defaultWidth
}

func renderSession(w io.Writer, s form.Snapshot) {
	fmt.Fprintln(w, headerStyle.Sprintf("%s  APY %s  %s",
		s.Coin.Label(), money.FormatPercent(s.Coin.DefaultAPY), asset.PeriodLabel(s.PeriodDays)))
	fmt.Fprintf(w, "  amount  %s = %s\n",
		money.Format(s.State.AmountInFiat, s.Fiat),
		money.FormatCrypto(s.State.AmountInCrypto, s.Coin.Symbol))
	if s.PriceAvailable {
		fmt.Fprintf(w, "  price   %s\n", money.Format(s.Price, s.Fiat))
	} else {
		fmt.Fprintln(w, warnStyle.Sprintf("  price   unavailable in %s", s.Fiat.Upper()))
	}
	if s.InputError != "" {
		fmt.Fprintln(w, errorStyle.Sprintf("  input   %s", s.InputError))
	}
}

// renderChart draws one bar per projection point. The grey part of a bar is
// the principal, the green part the accumulated growth.
func renderChart(w io.Writer, c simulator.Chart, width int) {
	if !c.Available || c.Projection == nil {
		fmt.Fprintln(w, warnStyle.Sprint(c.Message))
		return
	}
	fiat := asset.FiatCode(c.Currency)
	res := c.Projection
	fmt.Fprintln(w, headerStyle.Sprintf("Projected growth %s over %s at %s",
		c.GrowthLabel, asset.PeriodLabel(res.PeriodDays), c.APYLabel))

	barWidth := width - chartChrome
	if barWidth < minBarWidth {
		barWidth = minBarWidth
	}
	for _, p := range res.Points {
		full, base := 0, 0
		if res.FinalValue > 0 {
			full = int(p.TotalValue / res.FinalValue * float64(barWidth))
			base = int(p.Principal / res.FinalValue * float64(barWidth))
		}
		if base > full {
			base = full
		}
		bar := principalStyle.Sprint(strings.Repeat("█", base)) +
			growthStyle.Sprint(strings.Repeat("█", full-base)) +
			strings.Repeat(" ", barWidth-full)
		fmt.Fprintf(w, "%4s │%s│ %s\n", p.Label, bar, money.Format(p.TotalValue, fiat))
	}
	if len(c.Ticks) > 0 {
		fmt.Fprintf(w, "%4s  %s\n", "", strings.Join(c.Ticks, "  "))
	}
}

func renderPrices(w io.Writer, catalog *asset.Catalog, lookup func(coin, fiat string) (float64, bool)) {
	for _, a := range catalog.Assets() {
		cols := make([]string, 0, len(catalog.Fiats()))
		for _, f := range catalog.Fiats() {
			if v, ok := lookup(a.ID, f.String()); ok {
				cols = append(cols, fmt.Sprintf("%14s", money.Format(v, f)))
			} else {
				cols = append(cols, fmt.Sprintf("%14s", "–"))
			}
		}
		fmt.Fprintf(w, "%-20s %s\n", a.Label(), strings.Join(cols, " "))
	}
}
