// Package projection turns settled simulation changes into charts.
package projection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/stakesim/pkg/asset"
	"github.com/amirasaad/stakesim/pkg/eventbus"
	"github.com/amirasaad/stakesim/pkg/events"
	"github.com/amirasaad/stakesim/pkg/money"
	engine "github.com/amirasaad/stakesim/pkg/projection"
	"github.com/amirasaad/stakesim/pkg/service/simulator"
)

// ChartSink stores computed charts.
type ChartSink interface {
	SaveChart(ctx context.Context, chart simulator.Chart) error
}

// UnavailableMessage is shown instead of a chart when a pair has no price.
func UnavailableMessage(coinID, fiat string) string {
	return fmt.Sprintf("Price data not available for %s in %s.", coinID, strings.ToUpper(fiat))
}

// BuildChart runs the projection for a change event.
func BuildChart(e *events.ChangeEvent, catalog *asset.Catalog, now time.Time) (simulator.Chart, error) {
	fiat := asset.FiatCode(strings.ToLower(e.Currency))
	chart := simulator.Chart{
		SessionID:    e.SessionID,
		EventID:      e.ID,
		CryptoID:     e.CryptoID,
		CryptoSymbol: e.CryptoSymbol,
		Currency:     string(fiat),
		Available:    e.PriceAvailable,
		APY:          e.APY,
		APYLabel:     money.FormatPercent(e.APY),
		EventAt:      e.OccurredAt,
		ComputedAt:   now,
	}
	if catalog != nil {
		if a, err := catalog.Lookup(e.CryptoID); err == nil {
			chart.CryptoName = a.Name
		}
	}
	if !e.PriceAvailable {
		chart.Message = UnavailableMessage(e.CryptoID, e.Currency)
		return chart, nil
	}

	res, err := engine.Project(e.AmountInFiat, e.APY, e.PeriodDays)
	if err != nil {
		return simulator.Chart{}, err
	}
	chart.Price = e.Price
	chart.PriceLabel = money.Format(e.Price, fiat)
	chart.GrowthLabel = money.Format(res.TotalGrowth, fiat)
	chart.Projection = &res
	chart.Ticks = ticks(res, fiat)
	return chart, nil
}

// ticks are compact labels for five evenly spaced y-axis values.
func ticks(res engine.Result, fiat asset.FiatCode) []string {
	const n = 4
	out := make([]string, 0, n+1)
	for i := 0; i <= n; i++ {
		out = append(out, money.Compact(res.FinalValue*float64(i)/n, fiat))
	}
	return out
}

// HandleSimulationChanged computes and stores the chart of every settled
// change.
func HandleSimulationChanged(
	sink ChartSink,
	catalog *asset.Catalog,
	logger *slog.Logger,
) eventbus.HandlerFunc {
	return func(ctx context.Context, e events.Event) error {
		log := logger.With(
			"handler", "projection.HandleSimulationChanged",
			"event_type", e.Type(),
		)
		ce, ok := e.(*events.ChangeEvent)
		if !ok {
			log.Error("unexpected event", "event_type", fmt.Sprintf("%T", e))
			return errors.New("unexpected event type")
		}
		log = log.With("session", ce.SessionID, "coin", ce.CryptoID, "currency", ce.Currency)

		chart, err := BuildChart(ce, catalog, time.Now().UTC())
		if err != nil {
			log.Warn("Projection rejected", "error", err)
			return err
		}
		if err := sink.SaveChart(ctx, chart); err != nil {
			log.Error("Failed to store chart", "error", err)
			return err
		}
		log.Debug("Chart updated", "available", chart.Available, "growth", chart.GrowthLabel)
		return nil
	}
}
