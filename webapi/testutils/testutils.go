package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	infra_cache "github.com/amirasaad/stakesim/infra/cache"
	infra_eventbus "github.com/amirasaad/stakesim/infra/eventbus"
	infra_provider "github.com/amirasaad/stakesim/infra/provider"
	assetfixtures "github.com/amirasaad/stakesim/internal/fixtures/assets"
	"github.com/amirasaad/stakesim/pkg/app"
	"github.com/amirasaad/stakesim/pkg/config"
	"github.com/amirasaad/stakesim/pkg/preference"
	"github.com/amirasaad/stakesim/webapi"
	"github.com/amirasaad/stakesim/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
)

// MemoryPreferenceRepo is an in-process preference store for API tests.
type MemoryPreferenceRepo struct {
	mu    sync.Mutex
	items map[string]preference.Preferences
}

func NewMemoryPreferenceRepo() *MemoryPreferenceRepo {
	return &MemoryPreferenceRepo{items: make(map[string]preference.Preferences)}
}

func (r *MemoryPreferenceRepo) Get(_ context.Context, clientID string) (*preference.Preferences, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[clientID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *MemoryPreferenceRepo) Upsert(_ context.Context, p preference.Preferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.UpdatedAt = time.Now().UTC()
	r.items[p.ClientID] = p
	return nil
}

// APITestSuite runs the full HTTP API against static prices and in-process
// infrastructure.
type APITestSuite struct {
	suite.Suite
	App      *app.App
	Fiber    *fiber.App
	Provider *infra_provider.StaticProvider
	Bus      *infra_eventbus.MemoryEventBus
	Config   *config.App
}

// TestConfig is the configuration used by APITestSuite.
func TestConfig() *config.App {
	return &config.App{
		Env:       "test",
		RateLimit: &config.RateLimit{MaxRequests: 1000, Window: time.Minute},
		Prices:    &config.Prices{RefreshInterval: time.Hour, CacheTTL: time.Hour},
		Simulator: &config.Simulator{
			Debounce:      10 * time.Millisecond,
			DefaultAmount: 50000,
			DefaultPeriod: 365,
			DefaultCoin:   "bitcoin",
			SessionTTL:    time.Minute,
		},
	}
}

// SetupTest builds a fresh app with loaded prices for every test.
func (s *APITestSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog, err := assetfixtures.LoadCatalog("")
	s.Require().NoError(err)

	s.Provider = infra_provider.NewStaticProvider(infra_provider.DefaultStaticQuotes())
	s.Bus = infra_eventbus.NewWithMemory(logger, infra_eventbus.WithRecording())
	s.Config = TestConfig()
	s.App = app.New(&app.Deps{
		Catalog:        catalog,
		PriceProvider:  s.Provider,
		PriceCache:     infra_cache.NewMemoryCache(),
		EventBus:       s.Bus,
		PreferenceRepo: NewMemoryPreferenceRepo(),
		Logger:         logger,
	}, s.Config)

	_, err = s.App.Prices.Refresh(context.Background())
	s.Require().NoError(err)
	s.Fiber = webapi.SetupApp(s.App)
}

// TearDownTest closes every session of the app.
func (s *APITestSuite) TearDownTest() {
	if s.App != nil {
		s.App.Close()
	}
}

// MakeRequest is a helper for making HTTP requests in tests
func (s *APITestSuite) MakeRequest(method, path, body, clientID string) *http.Response {
	return MakeRequestWithApp(s.Fiber, method, path, body, clientID)
}

// MakeRequestWithHeader sends a GET with one extra header.
func (s *APITestSuite) MakeRequestWithHeader(path, key, value string) *http.Response {
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	req.Header.Set(key, value)
	resp, err := s.Fiber.Test(req, 5000)
	s.Require().NoError(err)
	return resp
}

// MakeRequestWithApp sends a request through app. clientID is sent as the
// X-Client-ID header when set.
func MakeRequestWithApp(app *fiber.App, method, path, body, clientID string) *http.Response {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if clientID != "" {
		req.Header.Set(common.ClientIDHeader, clientID)
	}
	resp, err := app.Test(req, 5000)
	if err != nil {
		panic(err) // For standalone tests, panic on error
	}
	return resp
}

// DecodeData reads a success envelope and decodes its data into out.
func DecodeData(resp *http.Response, out any) error {
	defer resp.Body.Close() //nolint: errcheck
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return err
	}
	if len(env.Data) == 0 || out == nil {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// DecodeProblem reads a problem details body.
func DecodeProblem(resp *http.Response) (common.ProblemDetails, error) {
	defer resp.Body.Close() //nolint: errcheck
	var pd common.ProblemDetails
	err := json.NewDecoder(resp.Body).Decode(&pd)
	return pd, err
}
