package app

import (
	"log/slog"
)

// setupEventBus registers all event handlers with the App's event Bus.
func (a *App) setupEventBus() {
	if a.Deps.EventBus == nil {
		return
	}
	logger := a.Deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	SetupBus(Dependencies{
		Bus:     a.Deps.EventBus,
		Charts:  a.SimulatorService,
		Catalog: a.Deps.Catalog,
		Logger:  logger,
	})
}
