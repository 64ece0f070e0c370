package projection

import (
	"github.com/amirasaad/stakesim/pkg/money"
	"github.com/amirasaad/stakesim/pkg/projection"
	"github.com/amirasaad/stakesim/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Query are the projection inputs. APY is a percentage.
type Query struct {
	Principal float64 `query:"principal" validate:"gte=0"`
	APY       float64 `query:"apy"`
	Period    int     `query:"period" validate:"required,gte=1"`
}

// Response is a projection with rounded display totals.
type Response struct {
	projection.Result
	TotalGrowthRounded float64 `json:"total_growth_rounded"`
	FinalValueRounded  float64 `json:"final_value_rounded"`
}

// Routes registers the stateless projection endpoint.
func Routes(app *fiber.App) {
	app.Get("/api/projection", Project())
}

// Project computes a projection from query parameters without a session.
// @Summary Project staking rewards
// @Tags projection
// @Produce json
// @Param principal query number true "Principal in fiat"
// @Param apy query number true "APY in percent"
// @Param period query int true "Period in days"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Router /api/projection [get]
func Project() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := common.ValidateQuery[Query](c)
		if err != nil {
			return nil
		}
		res, err := projection.Project(q.Principal, q.APY, q.Period)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid projection input", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Projection computed", Response{
			Result:             res,
			TotalGrowthRounded: money.Round2(res.TotalGrowth),
			FinalValueRounded:  money.Round2(res.FinalValue),
		})
	}
}
