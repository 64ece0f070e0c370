package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amirasaad/stakesim/pkg/config"
	"github.com/amirasaad/stakesim/pkg/provider"
	"golang.org/x/time/rate"
)

const coinGeckoName = "coingecko"

// CoinGeckoProvider implements provider.PriceProvider against the CoinGecko
// simple/price endpoint.
type CoinGeckoProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryBase  time.Duration
	logger     *slog.Logger
}

// simplePriceResponse is keyed by coin id, then by fiat code.
// Example: {"bitcoin":{"usd":67187.34,"eur":61920.11}}
type simplePriceResponse map[string]map[string]float64

// NewCoinGeckoProvider creates a CoinGecko provider using config
func NewCoinGeckoProvider(cfg *config.CoinGecko, logger *slog.Logger) *CoinGeckoProvider {
	if cfg == nil {
		cfg = &config.CoinGecko{
			ApiUrl:            "https://api.coingecko.com/api/v3",
			HTTPTimeout:       10 * time.Second,
			RequestsPerMinute: 30,
			BurstSize:         5,
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 30
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = 1
	}
	retryBase := cfg.RetryBaseDelay
	if retryBase <= 0 {
		retryBase = 500 * time.Millisecond
	}
	maxRetries := max(cfg.MaxRetries, 0)

	return &CoinGeckoProvider{
		apiKey:  cfg.ApiKey,
		baseURL: strings.TrimRight(cfg.ApiUrl, "/"),
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst),
		maxRetries: maxRetries,
		retryBase:  retryBase,
		logger:     logger.With(slog.String("component", "coingecko")),
	}
}

// FetchPrices issues one simple/price request for all coins and fiats.
func (p *CoinGeckoProvider) FetchPrices(
	ctx context.Context,
	coinIDs, fiats []string,
) (provider.Quotes, error) {
	if len(coinIDs) == 0 || len(fiats) == 0 {
		return provider.Quotes{}, nil
	}

	var lastErr *provider.FetchError
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			wait := backoff(p.retryBase, attempt-1)
			p.logger.Warn("Retrying price fetch",
				"attempt", attempt,
				"wait", wait,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return nil, p.fetchError(provider.ErrorKindNetwork, 0, ctx.Err())
			case <-time.After(wait):
			}
		}

		quotes, err := p.fetchOnce(ctx, coinIDs, fiats)
		if err == nil {
			return quotes, nil
		}
		lastErr = err
		if !err.Retryable() || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (p *CoinGeckoProvider) fetchOnce(
	ctx context.Context,
	coinIDs, fiats []string,
) (provider.Quotes, *provider.FetchError) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, p.fetchError(provider.ErrorKindNetwork, 0, fmt.Errorf("rate limiter: %w", err))
	}

	query := url.Values{}
	query.Set("ids", strings.Join(coinIDs, ","))
	query.Set("vs_currencies", strings.Join(fiats, ","))
	endpoint := p.baseURL + "/simple/price?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, p.fetchError(provider.ErrorKindNetwork, 0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", p.apiKey)
	}

	p.logger.Debug("Fetching prices", "coins", len(coinIDs), "fiats", fiats)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, p.fetchError(provider.ErrorKindNetwork, 0, fmt.Errorf("failed to make request: %w", err))
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		p.logger.Error("Bad response from price API", "status", resp.StatusCode, "body", string(body))
		return nil, p.fetchError(provider.ErrorKindStatus, resp.StatusCode, nil)
	}

	var apiResp simplePriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, p.fetchError(provider.ErrorKindParse, 0, fmt.Errorf("failed to decode response: %w", err))
	}
	if apiResp == nil {
		return nil, p.fetchError(provider.ErrorKindParse, 0, errors.New("empty response body"))
	}

	quotes := make(provider.Quotes, len(apiResp))
	for coinID, byFiat := range apiResp {
		if len(byFiat) == 0 {
			continue
		}
		inner := make(map[string]float64, len(byFiat))
		for fiat, price := range byFiat {
			inner[strings.ToLower(fiat)] = price
		}
		quotes[coinID] = inner
	}
	p.logger.Debug("Prices fetched", "coins", len(quotes))
	return quotes, nil
}

func (p *CoinGeckoProvider) fetchError(kind provider.ErrorKind, status int, err error) *provider.FetchError {
	return &provider.FetchError{
		Provider:   coinGeckoName,
		Kind:       kind,
		StatusCode: status,
		Err:        err,
	}
}

// Name returns the provider's name
func (p *CoinGeckoProvider) Name() string {
	return coinGeckoName
}

// backoff returns base * 2^retry, capped at 30s.
func backoff(base time.Duration, retry int) time.Duration {
	const maxDelay = 30 * time.Second
	if retry < 0 {
		return base
	}
	if retry > 16 {
		return maxDelay
	}
	d := base * time.Duration(1<<retry)
	if d > maxDelay {
		return maxDelay
	}
	return d
}

var _ provider.PriceProvider = (*CoinGeckoProvider)(nil)
