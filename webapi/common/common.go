// Package common holds the response envelopes and request helpers shared by
// the HTTP handlers.
package common

import (
	"errors"

	"github.com/amirasaad/stakesim/pkg/amount"
	"github.com/amirasaad/stakesim/pkg/asset"
	"github.com/amirasaad/stakesim/pkg/preference"
	"github.com/amirasaad/stakesim/pkg/projection"
	"github.com/amirasaad/stakesim/pkg/provider"
	preferencesvc "github.com/amirasaad/stakesim/pkg/service/preference"
	"github.com/amirasaad/stakesim/pkg/service/simulator"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ClientIDHeader identifies the caller for per-client preferences.
const ClientIDHeader = "X-Client-ID"

var validate = validator.New()

// Response defines the standard API response structure for success cases.
type Response struct {
	Status  int    `json:"status"`         // HTTP status code
	Message string `json:"message"`        // Human-readable explanation
	Data    any    `json:"data,omitempty"` // Response data
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`     // A URI reference that identifies the problem type
	Title    string `json:"title"`              // Short, human-readable summary
	Status   int    `json:"status"`             // HTTP status code
	Detail   string `json:"detail,omitempty"`   // Human-readable explanation
	Instance string `json:"instance,omitempty"` // URI reference that identifies the specific occurrence
	Errors   any    `json:"errors,omitempty"`   // Optional: additional error details
}

// SuccessResponseJSON wraps data in the standard envelope.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// ErrorResponseJSON returns a response following RFC 9457 Problem Details
func ErrorResponseJSON(
	c *fiber.Ctx,
	status int,
	title string,
	detail any,
) error {
	pd := ProblemDetails{
		Type:   "about:blank",
		Title:  title,
		Status: status,
	}
	if detail != nil {
		if s, ok := detail.(string); ok {
			pd.Detail = s
		} else {
			pd.Errors = detail
		}
	}
	pd.Instance = c.OriginalURL()
	c.Set(fiber.HeaderContentType, "application/problem+json")

	return c.Status(status).JSON(pd)
}

// ProblemDetailsJSON writes err as problem details. The status is taken from
// status when given, otherwise from ErrorToStatusCode.
func ProblemDetailsJSON(c *fiber.Ctx, title string, err error, status ...int) error {
	code := ErrorToStatusCode(err)
	if len(status) > 0 {
		code = status[0]
	}
	var detail any
	if err != nil {
		detail = err.Error()
	}
	return ErrorResponseJSON(c, code, title, detail)
}

// ErrorToStatusCode maps domain errors to appropriate HTTP status codes.
func ErrorToStatusCode(err error) int {
	var fe *fiber.Error
	var fetchErr *provider.FetchError
	switch {
	case err == nil:
		return fiber.StatusInternalServerError
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, simulator.ErrSessionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, simulator.ErrChartNotReady):
		return fiber.StatusAccepted
	case errors.Is(err, asset.ErrUnknownAsset):
		return fiber.StatusNotFound
	case errors.Is(err, asset.ErrUnknownFiat):
		return fiber.StatusBadRequest
	case errors.Is(err, preference.ErrUnknownTheme):
		return fiber.StatusBadRequest
	case errors.Is(err, preferencesvc.ErrMissingClientID):
		return fiber.StatusBadRequest
	case errors.Is(err, projection.ErrInvalidPeriod):
		return fiber.StatusBadRequest
	case errors.Is(err, projection.ErrInvalidPrincipal):
		return fiber.StatusBadRequest
	case errors.Is(err, projection.ErrInvalidAPY):
		return fiber.StatusBadRequest
	case errors.Is(err, amount.ErrInvalidNumericInput):
		return fiber.StatusUnprocessableEntity
	case errors.As(err, &fetchErr):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// BindAndValidate parses the request body and validates it using go-playground/validator.
// Returns a pointer to the struct (populated), or writes an error response and returns nil.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		_ = ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid request body", err.Error())
		return nil, err
	}
	if err := validate.Struct(input); err != nil {
		_ = ErrorResponseJSON(c, fiber.StatusBadRequest, "Validation failed", validationErrors(err))
		return nil, err
	}
	return &input, nil
}

// ValidateQuery parses query parameters into T and validates them.
func ValidateQuery[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.QueryParser(&input); err != nil {
		_ = ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid query", err.Error())
		return nil, err
	}
	if err := validate.Struct(input); err != nil {
		_ = ErrorResponseJSON(c, fiber.StatusBadRequest, "Validation failed", validationErrors(err))
		return nil, err
	}
	return &input, nil
}

func validationErrors(err error) any {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
