package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/spacesedan/tickerflow/config"
	"github.com/spacesedan/tickerflow/internal/models"
)

type AlphaVantageClient struct {
	Client  *http.Client
	APIKey  string
	BaseURL string
}

func NewAlphaVantageClient(cfg config.AlphaVantageConfig) *AlphaVantageClient {
	return &AlphaVantageClient{
		Client:  &http.Client{Timeout: cfg.Timeout},
		APIKey:  cfg.APIKey,
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// FetchDailySeries requests the compact TIME_SERIES_DAILY payload for symbol.
// A 200 answer without the series field is returned as-is; callers decide
// whether that is acceptable.
func (a *AlphaVantageClient) FetchDailySeries(ctx context.Context, symbol string) (*models.DailySeriesResponse, error) {
	if a.APIKey == "" {
		slog.Error("[AlphaVantageClient] API key is missing")
		return nil, fmt.Errorf("[AlphaVantageClient] API key is missing: %w", ErrUpstreamAuth)
	}

	query := url.Values{}
	query.Set("function", "TIME_SERIES_DAILY")
	query.Set("symbol", symbol)
	query.Set("outputsize", "compact")
	query.Set("apikey", a.APIKey)
	endpoint := a.BaseURL + "/query?" + query.Encode()

	slog.Info("[AlphaVantageClient] Fetching daily series", slog.String("symbol", symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", USER_AGENT)

	res, err := a.Client.Do(req)
	if err != nil {
		slog.Error("[AlphaVantageClient] Request failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("[AlphaVantageClient] request failed: %w: %v", ErrUpstreamUnavailable, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(res.Body)
		if err != nil {
			slog.Error("[AlphaVantageClient] Failed to read response body", slog.String("error", err.Error()))
			return nil, fmt.Errorf("[AlphaVantageClient] read body: %w: %v", ErrUpstreamUnavailable, err)
		}
		var response models.DailySeriesResponse
		if err := json.Unmarshal(body, &response); err != nil {
			slog.Error("[AlphaVantageClient] Failed to parse JSON response",
				slog.String("error", err.Error()),
				getPreview(body))
			return nil, fmt.Errorf("[AlphaVantageClient] decode: %w: %v", ErrUpstreamFormat, err)
		}
		slog.Info("[AlphaVantageClient] Successfully fetched daily series",
			slog.String("symbol", symbol),
			slog.Int("entries", len(response.Series)))
		return &response, nil
	case http.StatusBadRequest:
		slog.Warn("[AlphaVantageClient] Bad request: check query parameters")
		return nil, fmt.Errorf("[AlphaVantageClient] bad request: %w", ErrUpstreamFormat)
	case http.StatusUnauthorized, http.StatusForbidden:
		slog.Error("[AlphaVantageClient] Invalid API Key, check credentials")
		return nil, fmt.Errorf("[AlphaVantageClient] status %d: %w", res.StatusCode, ErrUpstreamAuth)
	case http.StatusTooManyRequests:
		slog.Warn("[AlphaVantageClient] Rate limit exceeded")
		return nil, fmt.Errorf("[AlphaVantageClient] rate limited: %w", ErrUpstreamUnavailable)
	default:
		slog.Warn("[AlphaVantageClient] Unexpected response", slog.Int("statusCode", res.StatusCode))
		return nil, fmt.Errorf("[AlphaVantageClient] status %d: %w", res.StatusCode, ErrUpstreamUnavailable)
	}
}

func getPreview(respBody []byte) slog.Attr {
	raw := string(respBody)
	if len(raw) > 50 {
		raw = raw[:50]
	}
	return slog.String("raw_response", raw)
}
