package initializer

import (
	"bytes"
	"testing"

	"github.com/amirasaad/stakesim/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestSetupLogger_Formats(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&config.Log{Format: "json", Prefix: "[test]"}, &buf)
	logger.Info("price refreshed", "coins", 7)
	assert.Contains(t, buf.String(), "price refreshed")
	assert.Contains(t, buf.String(), `"coins"`)

	buf.Reset()
	logger = setupLogger(nil, &buf)
	logger.Warn("stale prices")
	assert.Contains(t, buf.String(), "stale prices")
}

func TestSetupLogger_LevelAndLogfmt(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&config.Log{Format: "logfmt", Level: 4}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "session", "abc")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "session=abc")
}
