package preference

import (
	preferencesvc "github.com/amirasaad/stakesim/pkg/service/preference"
	"github.com/amirasaad/stakesim/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// UpdateRequest changes one or both preferences.
type UpdateRequest struct {
	Theme string `json:"theme" validate:"omitempty,oneof=light dark LIGHT DARK"`
	Fiat  string `json:"fiat"`
}

// Routes registers the preference endpoints. The client is identified by
// the X-Client-ID header.
func Routes(app *fiber.App, svc *preferencesvc.Service) {
	group := app.Group("/api/preferences")
	group.Get("/", Get(svc))
	group.Put("/", Update(svc))
}

// Get returns the client's preferences, or the defaults.
// @Summary Get preferences
// @Tags preferences
// @Produce json
// @Param X-Client-ID header string false "Client id"
// @Success 200 {object} common.Response
// @Router /api/preferences [get]
func Get(svc *preferencesvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := svc.Get(c.UserContext(), c.Get(common.ClientIDHeader))
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Preferences fetched", p)
	}
}

// Update stores the client's preferences.
// @Summary Update preferences
// @Tags preferences
// @Accept json
// @Produce json
// @Param X-Client-ID header string true "Client id"
// @Param request body UpdateRequest true "Preferences"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Router /api/preferences [put]
func Update(svc *preferencesvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := common.BindAndValidate[UpdateRequest](c)
		if err != nil {
			return nil
		}
		p, err := svc.Update(c.UserContext(), c.Get(common.ClientIDHeader), preferencesvc.Update{
			Theme: req.Theme,
			Fiat:  req.Fiat,
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to update preferences", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Preferences updated", p)
	}
}
