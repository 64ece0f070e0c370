package session_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/amirasaad/stakesim/pkg/service/simulator"
	"github.com/amirasaad/stakesim/webapi/session"
	"github.com/amirasaad/stakesim/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
)

type SessionTestSuite struct {
	testutils.APITestSuite
}

func TestSessionTestSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}

func (s *SessionTestSuite) createSession(body string) session.SessionResponse {
	resp := s.MakeRequest(fiber.MethodPost, "/api/sessions", body, "")
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
	var out session.SessionResponse
	s.Require().NoError(testutils.DecodeData(resp, &out))
	return out
}

func (s *SessionTestSuite) path(id fmt.Stringer, suffix string) string {
	return "/api/sessions/" + id.String() + suffix
}

func (s *SessionTestSuite) TestCreateWithDefaults() {
	out := s.createSession("")

	s.Equal("bitcoin", out.CryptoID)
	s.Equal("usd", out.Currency)
	s.Equal(365, out.PeriodDays)
	s.Equal("1 year", out.PeriodLabel)
	s.Equal("$50,000.00", out.FiatLabel)
	s.Equal("0.74626866 BTC", out.CryptoLabel)
	s.Require().NotNil(out.Price)
	s.InDelta(67000, *out.Price, 1e-9)
	s.True(out.PriceAvailable)
}

func (s *SessionTestSuite) TestCreateWithOverrides() {
	out := s.createSession(`{"coin":"ethereum","currency":"EUR","period_days":90,"amount":1000}`)

	s.Equal("ethereum", out.CryptoID)
	s.Equal("eur", out.Currency)
	s.Equal(90, out.PeriodDays)
	s.InDelta(1000.0/3230.0, out.AmountInCrypto, 1e-12)
}

func (s *SessionTestSuite) TestCreateUsesPreferredCurrency() {
	resp := s.MakeRequest(fiber.MethodPut, "/api/preferences", `{"fiat":"eur"}`, "client-7")
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = s.MakeRequest(fiber.MethodPost, "/api/sessions", "", "client-7")
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
	var out session.SessionResponse
	s.Require().NoError(testutils.DecodeData(resp, &out))
	s.Equal("eur", out.Currency)
}

func (s *SessionTestSuite) TestCreateRejectsBadInput() {
	tests := []struct {
		body   string
		status int
	}{
		{`{"coin":"dogecoin"}`, fiber.StatusNotFound},
		{`{"currency":"gbp"}`, fiber.StatusBadRequest},
		{`{"period_days":-3}`, fiber.StatusBadRequest},
		{`{"amount":-1}`, fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		resp := s.MakeRequest(fiber.MethodPost, "/api/sessions", tt.body, "")
		s.Equal(tt.status, resp.StatusCode, tt.body)
		_ = resp.Body.Close()
	}
}

func (s *SessionTestSuite) TestEditAmount() {
	out := s.createSession("")

	resp := s.MakeRequest(fiber.MethodPut, s.path(out.ID, "/amount"), `{"field":"crypto","value":"2"}`, "")
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var got session.SessionResponse
	s.Require().NoError(testutils.DecodeData(resp, &got))
	s.InDelta(134000, got.AmountInFiat, 1e-9)
	s.Equal("crypto", got.LastEdited)
}

func (s *SessionTestSuite) TestEditAmountInvalidText() {
	out := s.createSession("")

	resp := s.MakeRequest(fiber.MethodPut, s.path(out.ID, "/amount"), `{"field":"fiat","value":"12abc"}`, "")
	s.Equal(fiber.StatusUnprocessableEntity, resp.StatusCode)
	pd, err := testutils.DecodeProblem(resp)
	s.Require().NoError(err)
	s.Equal("Invalid amount", pd.Title)

	resp = s.MakeRequest(fiber.MethodPut, s.path(out.ID, "/amount"), `{"field":"btc","value":"1"}`, "")
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func (s *SessionTestSuite) TestSelections() {
	out := s.createSession("")

	resp := s.MakeRequest(fiber.MethodPut, s.path(out.ID, "/coin"), `{"coin":"solana"}`, "")
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var got session.SessionResponse
	s.Require().NoError(testutils.DecodeData(resp, &got))
	s.Equal("solana", got.CryptoID)
	s.InDelta(11, got.APY, 1e-9)
	s.InDelta(50000.0/150.0, got.AmountInCrypto, 1e-9)

	resp = s.MakeRequest(fiber.MethodPut, s.path(out.ID, "/currency"), `{"currency":"eur"}`, "")
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	s.Require().NoError(testutils.DecodeData(resp, &got))
	s.Equal("eur", got.Currency)

	resp = s.MakeRequest(fiber.MethodPut, s.path(out.ID, "/period"), `{"period_days":30}`, "")
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	s.Require().NoError(testutils.DecodeData(resp, &got))
	s.Equal(30, got.PeriodDays)

	resp = s.MakeRequest(fiber.MethodPut, s.path(out.ID, "/period"), `{"period_days":-1}`, "")
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func (s *SessionTestSuite) TestChart() {
	out := s.createSession("")

	var chart simulator.Chart
	s.Require().Eventually(func() bool {
		resp := s.MakeRequest(fiber.MethodGet, s.path(out.ID, "/chart"), "", "")
		if resp.StatusCode != fiber.StatusOK {
			_ = resp.Body.Close()
			return false
		}
		return testutils.DecodeData(resp, &chart) == nil
	}, time.Second, 10*time.Millisecond)

	s.True(chart.Available)
	s.Equal("$6,373.73", chart.GrowthLabel)
	s.Require().NotNil(chart.Projection)
	s.Len(chart.Projection.Points, 13)
}

func (s *SessionTestSuite) TestChartPriceUnavailable() {
	s.Provider.Set(map[string]map[string]float64{"bitcoin": {"usd": 67000}})
	_, err := s.App.Prices.Refresh(s.T().Context())
	s.Require().NoError(err)

	out := s.createSession(`{"currency":"eur"}`)
	s.False(out.PriceAvailable)

	var chart simulator.Chart
	s.Require().Eventually(func() bool {
		resp := s.MakeRequest(fiber.MethodGet, s.path(out.ID, "/chart"), "", "")
		if resp.StatusCode != fiber.StatusOK {
			_ = resp.Body.Close()
			return false
		}
		return testutils.DecodeData(resp, &chart) == nil
	}, time.Second, 10*time.Millisecond)
	s.False(chart.Available)
	s.Equal("Price data not available for bitcoin in EUR.", chart.Message)
}

func (s *SessionTestSuite) TestUnknownAndInvalidIDs() {
	resp := s.MakeRequest(fiber.MethodGet, "/api/sessions/not-a-uuid", "", "")
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = s.MakeRequest(fiber.MethodGet, "/api/sessions/6f1c2f9e-8a55-4d43-9d0a-2b7a4f4a0c11", "", "")
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func (s *SessionTestSuite) TestDelete() {
	out := s.createSession("")

	resp := s.MakeRequest(fiber.MethodDelete, s.path(out.ID, ""), "", "")
	s.Equal(http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	resp = s.MakeRequest(fiber.MethodDelete, s.path(out.ID, ""), "", "")
	s.Equal(http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}
