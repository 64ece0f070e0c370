package asset

import (
	"github.com/amirasaad/stakesim/pkg/asset"
	"github.com/amirasaad/stakesim/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// CoinResponse is one selectable coin.
type CoinResponse struct {
	ID         string  `json:"id"`
	Symbol     string  `json:"symbol"`
	Name       string  `json:"name"`
	Label      string  `json:"label"`
	DefaultAPY float64 `json:"default_apy"`
}

// CurrencyResponse is one supported fiat currency.
type CurrencyResponse struct {
	Code   string `json:"code"`
	Label  string `json:"label"`
	Symbol string `json:"symbol"`
}

// Routes registers the reference data endpoints.
func Routes(app *fiber.App, catalog *asset.Catalog) {
	api := app.Group("/api")
	api.Get("/assets", ListAssets(catalog))
	api.Get("/currencies", ListCurrencies(catalog))
	api.Get("/periods", ListPeriods())
}

// ListAssets returns the stakeable coins in catalog order.
// @Summary List coins
// @Tags assets
// @Produce json
// @Success 200 {object} common.Response
// @Router /api/assets [get]
func ListAssets(catalog *asset.Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		assets := catalog.Assets()
		out := make([]CoinResponse, 0, len(assets))
		for _, a := range assets {
			out = append(out, CoinResponse{
				ID:         a.ID,
				Symbol:     a.Symbol,
				Name:       a.Name,
				Label:      a.Label(),
				DefaultAPY: a.DefaultAPY,
			})
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Assets fetched successfully", out)
	}
}

// ListCurrencies returns the supported fiat currencies.
// @Summary List currencies
// @Tags assets
// @Produce json
// @Success 200 {object} common.Response
// @Router /api/currencies [get]
func ListCurrencies(catalog *asset.Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fiats := catalog.Fiats()
		out := make([]CurrencyResponse, 0, len(fiats))
		for _, f := range fiats {
			out = append(out, CurrencyResponse{Code: f.String(), Label: f.Upper(), Symbol: f.Symbol()})
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Currencies fetched successfully", out)
	}
}

// ListPeriods returns the staking period options.
// @Summary List staking periods
// @Tags assets
// @Produce json
// @Success 200 {object} common.Response
// @Router /api/periods [get]
func ListPeriods() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Periods fetched successfully", asset.Periods)
	}
}
