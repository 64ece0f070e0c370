package price_test

import (
	"errors"
	"testing"

	"github.com/amirasaad/stakesim/pkg/provider"
	priceweb "github.com/amirasaad/stakesim/webapi/price"
	"github.com/amirasaad/stakesim/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
)

type PriceTestSuite struct {
	testutils.APITestSuite
}

func TestPriceTestSuite(t *testing.T) {
	suite.Run(t, new(PriceTestSuite))
}

func (s *PriceTestSuite) TestGetPrices() {
	resp := s.MakeRequest(fiber.MethodGet, "/api/prices", "", "")
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)

	var out priceweb.TableResponse
	s.Require().NoError(testutils.DecodeData(resp, &out))
	s.Len(out.Prices, 7)
	s.InDelta(67000, out.Prices["bitcoin"]["usd"], 1e-9)
	s.True(out.Status.HasData)
	s.False(out.Status.Stale)
	s.Equal("static", out.Status.Source)
}

func (s *PriceTestSuite) TestGetPrice() {
	resp := s.MakeRequest(fiber.MethodGet, "/api/prices/bitcoin/EUR", "", "")
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)

	var q priceweb.QuoteResponse
	s.Require().NoError(testutils.DecodeData(resp, &q))
	s.True(q.Available)
	s.Require().NotNil(q.Price)
	s.InDelta(61800, *q.Price, 1e-9)
	s.Equal("€61,800.00", q.Label)
}

func (s *PriceTestSuite) TestGetPriceUnavailableAndUnknown() {
	s.Provider.Set(provider.Quotes{"bitcoin": {"usd": 67000, "eur": 0}})
	_, err := s.App.Prices.Refresh(s.T().Context())
	s.Require().NoError(err)

	resp := s.MakeRequest(fiber.MethodGet, "/api/prices/bitcoin/eur", "", "")
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var q priceweb.QuoteResponse
	s.Require().NoError(testutils.DecodeData(resp, &q))
	s.False(q.Available)
	s.Nil(q.Price)

	resp = s.MakeRequest(fiber.MethodGet, "/api/prices/dogecoin/usd", "", "")
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()

	resp = s.MakeRequest(fiber.MethodGet, "/api/prices/bitcoin/gbp", "", "")
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func (s *PriceTestSuite) TestRefreshFailureKeepsTable() {
	s.Provider.Fail(&provider.FetchError{Provider: "static", Kind: provider.ErrorKindStatus, StatusCode: 503})

	resp := s.MakeRequest(fiber.MethodPost, "/api/prices/refresh", "", "")
	s.Equal(fiber.StatusBadGateway, resp.StatusCode)
	pd, err := testutils.DecodeProblem(resp)
	s.Require().NoError(err)
	s.Equal("Price refresh failed", pd.Title)
	s.NotNil(pd.Errors)

	st := s.App.Prices.Status()
	s.True(st.Stale)
	s.True(errors.Is(st.Err(), provider.ErrFetch))
	v, ok := s.App.Prices.Price("bitcoin", "usd")
	s.True(ok)
	s.InDelta(67000, v, 1e-9)

	s.Provider.Fail(nil)
	resp = s.MakeRequest(fiber.MethodPost, "/api/prices/refresh", "", "")
	s.Equal(fiber.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
	s.Empty(s.App.Prices.Status().LastError)
}
