package webapi_test

import (
	"io"
	"testing"

	"github.com/amirasaad/stakesim/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
)

type SwaggerTestSuite struct {
	testutils.APITestSuite
}

func (s *SwaggerTestSuite) TestServesDocument() {
	resp := s.MakeRequest(fiber.MethodGet, "/swagger/doc.json", "", "")
	defer resp.Body.Close() //nolint: errcheck
	s.Equal(fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Contains(string(body), `"/api/sessions/{id}/chart"`)
	s.Contains(string(body), `"title": "Staking Simulator API"`)
}

func TestSwaggerTestSuite(t *testing.T) {
	suite.Run(t, new(SwaggerTestSuite))
}
