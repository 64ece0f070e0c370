package session

import (
	"errors"

	"github.com/amirasaad/stakesim/pkg/amount"
	"github.com/amirasaad/stakesim/pkg/asset"
	"github.com/amirasaad/stakesim/pkg/form"
	preferencesvc "github.com/amirasaad/stakesim/pkg/service/preference"
	"github.com/amirasaad/stakesim/pkg/service/simulator"
	"github.com/amirasaad/stakesim/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Routes registers HTTP routes for form sessions.
func Routes(app *fiber.App, sim *simulator.Service, prefs *preferencesvc.Service) {
	group := app.Group("/api/sessions")
	group.Post("/", Create(sim, prefs))
	group.Get("/:id", Get(sim))
	group.Delete("/:id", Delete(sim))
	group.Put("/:id/amount", EditAmount(sim))
	group.Put("/:id/coin", SelectCoin(sim))
	group.Put("/:id/currency", SelectCurrency(sim))
	group.Put("/:id/period", SelectPeriod(sim))
	group.Get("/:id/chart", Chart(sim))
}

// sessionID parses the path id. On failure the 400 response is already
// written and ok is false.
func sessionID(c *fiber.Ctx) (id uuid.UUID, ok bool) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		_ = common.ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid session id", err.Error())
		return uuid.Nil, false
	}
	return id, true
}

// Create starts a session. Without an explicit currency the client's
// preferred fiat is used.
// @Summary Create a session
// @Tags sessions
// @Accept json
// @Produce json
// @Param X-Client-ID header string false "Client id"
// @Param request body CreateRequest false "Initial form values"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /api/sessions [post]
func Create(sim *simulator.Service, prefs *preferencesvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := &CreateRequest{}
		if len(c.Body()) > 0 {
			var err error
			if req, err = common.BindAndValidate[CreateRequest](c); err != nil {
				return nil
			}
		}
		opts := simulator.SessionOptions{
			Coin:       req.Coin,
			PeriodDays: req.PeriodDays,
			Amount:     req.Amount,
		}
		switch {
		case req.Currency != "":
			f, err := asset.ParseFiat(req.Currency)
			if err != nil {
				return common.ProblemDetailsJSON(c, "Unknown currency", err)
			}
			opts.Fiat = f
		case prefs != nil && c.Get(common.ClientIDHeader) != "":
			opts.Fiat = prefs.Get(c.UserContext(), c.Get(common.ClientIDHeader)).Fiat
		}

		snap, err := sim.CreateSession(c.UserContext(), opts)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to create session", err)
		}
		c.Location("/api/sessions/" + snap.SessionID.String())
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Session created", ToResponse(snap))
	}
}

// Get returns the session state.
// @Summary Get a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /api/sessions/{id} [get]
func Get(sim *simulator.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := sessionID(c)
		if !ok {
			return nil
		}
		snap, err := sim.Snapshot(id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Session not found", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Session fetched", ToResponse(snap))
	}
}

// Delete closes the session.
// @Summary Close a session
// @Tags sessions
// @Param id path string true "Session id"
// @Success 204
// @Failure 404 {object} common.ProblemDetails
// @Router /api/sessions/{id} [delete]
func Delete(sim *simulator.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := sessionID(c)
		if !ok {
			return nil
		}
		if err := sim.CloseSession(id); err != nil {
			return common.ProblemDetailsJSON(c, "Session not found", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// EditAmount applies the typed text to one amount. Text that is not a
// non-negative number is answered with 422 and the unchanged amounts.
// @Summary Edit an amount
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session id"
// @Param request body AmountRequest true "Edited field and text"
// @Success 200 {object} common.Response
// @Failure 422 {object} common.Response
// @Router /api/sessions/{id}/amount [put]
func EditAmount(sim *simulator.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := sessionID(c)
		if !ok {
			return nil
		}
		req, err := common.BindAndValidate[AmountRequest](c)
		if err != nil {
			return nil
		}
		field, err := amount.ParseField(req.Field)
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid field", err.Error())
		}
		snap, err := sim.EditAmount(id, field, req.Value)
		if errors.Is(err, amount.ErrInvalidNumericInput) {
			return common.ErrorResponseJSON(c, fiber.StatusUnprocessableEntity, "Invalid amount", ToResponse(snap))
		}
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to update amount", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Amount updated", ToResponse(snap))
	}
}

// SelectCoin switches the session's asset.
// @Summary Select a coin
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session id"
// @Param request body CoinRequest true "Coin"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /api/sessions/{id}/coin [put]
func SelectCoin(sim *simulator.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := sessionID(c)
		if !ok {
			return nil
		}
		req, err := common.BindAndValidate[CoinRequest](c)
		if err != nil {
			return nil
		}
		return respond(c, "Coin updated")(sim.SelectCoin(id, req.Coin))
	}
}

// SelectCurrency switches the session's fiat currency.
// @Summary Select a currency
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session id"
// @Param request body CurrencyRequest true "Currency"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Router /api/sessions/{id}/currency [put]
func SelectCurrency(sim *simulator.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := sessionID(c)
		if !ok {
			return nil
		}
		req, err := common.BindAndValidate[CurrencyRequest](c)
		if err != nil {
			return nil
		}
		return respond(c, "Currency updated")(sim.SelectCurrency(id, req.Currency))
	}
}

// SelectPeriod changes the staking period.
// @Summary Select a period
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session id"
// @Param request body PeriodRequest true "Period"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Router /api/sessions/{id}/period [put]
func SelectPeriod(sim *simulator.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := sessionID(c)
		if !ok {
			return nil
		}
		req, err := common.BindAndValidate[PeriodRequest](c)
		if err != nil {
			return nil
		}
		return respond(c, "Period updated")(sim.SelectPeriod(id, req.PeriodDays))
	}
}

func respond(c *fiber.Ctx, message string) func(form.Snapshot, error) error {
	return func(snap form.Snapshot, err error) error {
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to update session", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, message, ToResponse(snap))
	}
}

// Chart returns the latest projection of the session. Until the first
// settled change has been projected the answer is 202 without data.
// @Summary Get the session chart
// @Tags sessions
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} common.Response
// @Success 202 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /api/sessions/{id}/chart [get]
func Chart(sim *simulator.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := sessionID(c)
		if !ok {
			return nil
		}
		chart, err := sim.Chart(id)
		if errors.Is(err, simulator.ErrChartNotReady) {
			return common.SuccessResponseJSON(c, fiber.StatusAccepted, "Chart pending", nil)
		}
		if err != nil {
			return common.ProblemDetailsJSON(c, "Session not found", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Chart fetched", chart)
	}
}
