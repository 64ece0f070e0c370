package projection_test

import (
	"testing"

	projectionweb "github.com/amirasaad/stakesim/webapi/projection"
	"github.com/amirasaad/stakesim/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
)

type ProjectionTestSuite struct {
	testutils.APITestSuite
}

func TestProjectionTestSuite(t *testing.T) {
	suite.Run(t, new(ProjectionTestSuite))
}

func (s *ProjectionTestSuite) TestProject() {
	resp := s.MakeRequest(fiber.MethodGet, "/api/projection?principal=50000&apy=12&period=365", "", "")
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)

	var out projectionweb.Response
	s.Require().NoError(testutils.DecodeData(resp, &out))
	s.InDelta(6373.73, out.TotalGrowthRounded, 1e-9)
	s.InDelta(56373.73, out.FinalValueRounded, 1e-9)
	s.Len(out.Points, 13)
	s.Equal("0m", out.Points[0].Label)
	s.Equal(365, out.Points[12].DaysElapsed)
}

func (s *ProjectionTestSuite) TestProjectRejectsBadInput() {
	for _, q := range []string{
		"?principal=50000&apy=12&period=0",
		"?principal=-1&apy=12&period=30",
		"?principal=abc&apy=12&period=30",
	} {
		resp := s.MakeRequest(fiber.MethodGet, "/api/projection"+q, "", "")
		s.Equal(fiber.StatusBadRequest, resp.StatusCode, q)
		_ = resp.Body.Close()
	}
}
