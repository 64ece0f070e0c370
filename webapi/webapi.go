// Package webapi provides the HTTP API of the staking simulator.
// It is organized into sub-packages per resource:
// - asset: coins, currencies and staking periods
// - price: the live price table and manual refresh
// - projection: stateless reward projections
// - session: form sessions and their charts
// - preference: per-client theme and currency
package webapi

import (
	"errors"
	"strings"
	"time"

	_ "github.com/amirasaad/stakesim/docs"
	"github.com/amirasaad/stakesim/pkg/app"
	assetweb "github.com/amirasaad/stakesim/webapi/asset"
	"github.com/amirasaad/stakesim/webapi/common"
	preferenceweb "github.com/amirasaad/stakesim/webapi/preference"
	priceweb "github.com/amirasaad/stakesim/webapi/price"
	projectionweb "github.com/amirasaad/stakesim/webapi/projection"
	sessionweb "github.com/amirasaad/stakesim/webapi/session"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/gofiber/swagger"
)

// SetupApp Initialize Fiber with custom configuration
func SetupApp(a *app.App) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
	})
	fiberApp.Get("/swagger/*", swagger.New(swagger.Config{
		TryItOutEnabled: true,
	}))

	maxRequests, window := 100, time.Minute
	if rl := a.Config.RateLimit; rl != nil {
		maxRequests, window = rl.MaxRequests, rl.Window
	}
	// Uses X-Forwarded-For header when behind a proxy
	fiberApp.Use(limiter.New(limiter.Config{
		Max:        maxRequests,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
				// Take the first IP in the chain
				if commaIndex := strings.Index(forwardedFor, ","); commaIndex != -1 {
					return strings.TrimSpace(forwardedFor[:commaIndex])
				}
				return strings.TrimSpace(forwardedFor)
			}
			if realIP := c.Get("X-Real-IP"); realIP != "" {
				return realIP
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return common.ProblemDetailsJSON(
				c,
				"Too Many Requests",
				errors.New("rate limit exceeded"),
				fiber.StatusTooManyRequests,
			)
		},
	}))
	fiberApp.Use(recover.New())
	if a.Config.Env != "test" {
		fiberApp.Use(logger.New())
	}

	// Health check endpoint
	fiberApp.Get(
		"/",
		func(c *fiber.Ctx) error {
			return c.SendString("Staking simulator is running! 🚀")
		},
	)

	assetweb.Routes(fiberApp, a.Deps.Catalog)
	priceweb.Routes(fiberApp, a.Prices, a.Deps.Catalog)
	projectionweb.Routes(fiberApp)
	sessionweb.Routes(fiberApp, a.SimulatorService, a.PreferenceService)
	preferenceweb.Routes(fiberApp, a.PreferenceService)
	return fiberApp
}
