package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/tickerflow/config"
)

func newAlphaVantageTestClient(t *testing.T, status int, body string) *AlphaVantageClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "TIME_SERIES_DAILY", r.URL.Query().Get("function"))
		assert.Equal(t, "NVDA", r.URL.Query().Get("symbol"))
		assert.Equal(t, "compact", r.URL.Query().Get("outputsize"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return NewAlphaVantageClient(config.AlphaVantageConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	})
}

func TestFetchDailySeries(t *testing.T) {
	body := `{
		"Meta Data": {"2. Symbol": "NVDA"},
		"Time Series (Daily)": {
			"2025-10-14": {"1. open": "180.1000", "2. high": "182.0000", "3. low": "179.5000", "4. close": "181.2500", "5. volume": "151234567"},
			"2025-10-13": {"1. open": "178.0000", "2. high": "180.9000", "3. low": "177.2000", "4. close": "180.0300", "5. volume": "140000000"}
		}
	}`
	client := newAlphaVantageTestClient(t, http.StatusOK, body)

	resp, err := client.FetchDailySeries(context.Background(), "NVDA")
	require.NoError(t, err)
	require.Len(t, resp.Series, 2)
	assert.Equal(t, "181.2500", resp.Series["2025-10-14"].Close)
	assert.Equal(t, "140000000", resp.Series["2025-10-13"].Volume)
	assert.Equal(t, "NVDA", resp.MetaData["2. Symbol"])
}

func TestFetchDailySeries_NoteOnly(t *testing.T) {
	client := newAlphaVantageTestClient(t, http.StatusOK, `{"Note": "Thank you for using Alpha Vantage!"}`)

	resp, err := client.FetchDailySeries(context.Background(), "NVDA")
	require.NoError(t, err)
	assert.Nil(t, resp.Series)
	assert.Contains(t, resp.Note, "Alpha Vantage")
}

func TestFetchDailySeries_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"malformed json", http.StatusOK, `{"Time Series (Daily)": [`, ErrUpstreamFormat},
		{"unauthorized", http.StatusUnauthorized, `{}`, ErrUpstreamAuth},
		{"throttled", http.StatusTooManyRequests, `{}`, ErrUpstreamUnavailable},
		{"server error", http.StatusBadGateway, `{}`, ErrUpstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newAlphaVantageTestClient(t, tt.status, tt.body)
			_, err := client.FetchDailySeries(context.Background(), "NVDA")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFetchDailySeries_MissingKey(t *testing.T) {
	client := NewAlphaVantageClient(config.AlphaVantageConfig{BaseURL: "http://127.0.0.1:1"})
	_, err := client.FetchDailySeries(context.Background(), "NVDA")
	assert.ErrorIs(t, err, ErrUpstreamAuth)
}
