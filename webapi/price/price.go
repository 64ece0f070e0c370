package price

import (
	"strings"
	"time"

	"github.com/amirasaad/stakesim/pkg/asset"
	"github.com/amirasaad/stakesim/pkg/money"
	"github.com/amirasaad/stakesim/pkg/price"
	"github.com/amirasaad/stakesim/pkg/provider"
	"github.com/amirasaad/stakesim/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// TableResponse is the current price table with its refresh state.
type TableResponse struct {
	Prices provider.Quotes `json:"prices"`
	Status price.Status    `json:"status"`
}

// QuoteResponse is a single pair lookup. Price is omitted when the pair is
// unavailable.
type QuoteResponse struct {
	CryptoID  string    `json:"crypto_id"`
	Currency  string    `json:"currency"`
	Available bool      `json:"available"`
	Price     *float64  `json:"price,omitempty"`
	Label     string    `json:"label,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
	Stale     bool      `json:"stale"`
}

// Routes registers the price endpoints.
func Routes(app *fiber.App, store *price.Store, catalog *asset.Catalog) {
	group := app.Group("/api/prices")
	group.Get("/", GetPrices(store))
	group.Get("/:coin/:fiat", GetPrice(store, catalog))
	group.Post("/refresh", Refresh(store))
}

func tableResponse(store *price.Store) TableResponse {
	quotes := store.Table().Quotes()
	if quotes == nil {
		quotes = provider.Quotes{}
	}
	return TableResponse{Prices: quotes, Status: store.Status()}
}

// GetPrices returns the whole table. Stale data is served together with the
// last refresh error.
// @Summary Get the price table
// @Tags prices
// @Produce json
// @Success 200 {object} common.Response
// @Router /api/prices [get]
func GetPrices(store *price.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Prices fetched successfully", tableResponse(store))
	}
}

// GetPrice looks up one pair.
// @Summary Get one price
// @Tags prices
// @Produce json
// @Param coin path string true "Coin id"
// @Param fiat path string true "Currency code"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /api/prices/{coin}/{fiat} [get]
func GetPrice(store *price.Store, catalog *asset.Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		coin, err := catalog.Lookup(strings.ToLower(c.Params("coin")))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unknown asset", err)
		}
		fiat, err := catalog.ParseFiat(c.Params("fiat"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unknown currency", err)
		}
		st := store.Status()
		resp := QuoteResponse{
			CryptoID:  coin.ID,
			Currency:  fiat.String(),
			FetchedAt: st.FetchedAt,
			Stale:     st.Stale,
		}
		if v, ok := store.Price(coin.ID, fiat.String()); ok {
			resp.Available = true
			resp.Price = &v
			resp.Label = money.Format(v, fiat)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Price fetched successfully", resp)
	}
}

// Refresh runs a manual refresh. On failure the previous table is still
// returned with a 502 problem response carrying it.
// @Summary Refresh prices
// @Tags prices
// @Produce json
// @Success 200 {object} common.Response
// @Failure 429 {object} common.ProblemDetails
// @Failure 502 {object} common.ProblemDetails
// @Router /api/prices/refresh [post]
func Refresh(store *price.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := store.Retry(c.UserContext()); err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusBadGateway, "Price refresh failed", tableResponse(store))
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Prices refreshed", tableResponse(store))
	}
}
