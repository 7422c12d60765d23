package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_NonDevWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "prod", slog.LevelInfo)

	logger.Debug("[PriceCache] hidden")
	logger.Info("[PriceCache] Price series refreshed", slog.String("symbol", "NVDA"), slog.Int("bars", 100))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "INFO", line["level"])
	assert.Equal(t, "[PriceCache] Price series refreshed", line["msg"])
	assert.Equal(t, "NVDA", line["symbol"])
	assert.EqualValues(t, 100, line["bars"])
	assert.Contains(t, line, "source")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNewLogger_DevIsHumanReadable(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "dev", slog.LevelDebug)

	logger.Debug("[Collector] Searching community", slog.String("community", "stocks"))

	out := buf.String()
	assert.Contains(t, out, "[Collector] Searching community")
	assert.Contains(t, out, "stocks")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
