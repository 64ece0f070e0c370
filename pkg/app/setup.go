// Package app provides functionality for setting up and configuring the event Bus
// with all necessary event handlers for the application.
package app

import (
	"log/slog"

	"github.com/amirasaad/stakesim/pkg/asset"
	"github.com/amirasaad/stakesim/pkg/eventbus"
	"github.com/amirasaad/stakesim/pkg/events"
	"github.com/amirasaad/stakesim/pkg/handler/projection"
)

// Dependencies contains all the dependencies needed by the SetupBus function
type Dependencies struct {
	Bus     eventbus.Bus
	Charts  projection.ChartSink
	Catalog *asset.Catalog
	Logger  *slog.Logger
}

// SetupBus registers all event handlers with the provided event Bus.
func SetupBus(deps Dependencies) {
	deps.Bus.Register(
		events.EventTypeSimulationChanged.String(),
		projection.HandleSimulationChanged(
			deps.Charts,
			deps.Catalog,
			deps.Logger,
		),
	)
}
