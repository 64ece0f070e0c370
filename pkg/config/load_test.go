package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("stakesim-missing.env")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "https://api.coingecko.com/api/v3", cfg.CoinGecko.ApiUrl)
	assert.Equal(t, 500*time.Millisecond, cfg.Simulator.Debounce)
	assert.Equal(t, 50000.0, cfg.Simulator.DefaultAmount)
	assert.Equal(t, 365, cfg.Simulator.DefaultPeriod)
	assert.Equal(t, "bitcoin", cfg.Simulator.DefaultCoin)
	assert.Equal(t, time.Minute, cfg.Prices.RefreshInterval)
	assert.Empty(t, cfg.Redis.URL)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SIMULATOR_DEBOUNCE", "250ms")
	t.Setenv("COINGECKO_API_KEY", "demo-key-123456")
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("PRICES_REFRESH_INTERVAL", "0s")

	cfg, err := Load("stakesim-missing.env")
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Simulator.Debounce)
	assert.Equal(t, "demo-key-123456", cfg.CoinGecko.ApiKey)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Zero(t, cfg.Prices.RefreshInterval)
}

func TestLoad_FromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "stakesim-test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("SIMULATOR_DEFAULT_COIN=ethereum\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		_ = os.Unsetenv("SIMULATOR_DEFAULT_COIN")
	})

	cfg, err := Load("stakesim-test.env")
	require.NoError(t, err)
	assert.Equal(t, "ethereum", cfg.Simulator.DefaultCoin)
}

func TestMaskValue(t *testing.T) {
	assert.Equal(t, "", maskValue(""))
	assert.Equal(t, "****", maskValue("short"))
	assert.Equal(t, "ab****6789", maskValue("abcdef6789"))
}
