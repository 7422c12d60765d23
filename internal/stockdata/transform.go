package stockdata

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spacesedan/tickerflow/internal/models"
)

const barDateLayout = "2006-01-02"

var ErrMissingSeries = fmt.Errorf("response is missing %q", models.DailySeriesField)

// transformSeries turns the daily series into bars sorted by date ascending,
// keeping the most recent maxBars. A single malformed entry rejects the
// whole response.
func transformSeries(resp *models.DailySeriesResponse, maxBars int) ([]models.PriceBar, error) {
	if resp == nil || resp.Series == nil {
		return nil, missingSeriesError(resp)
	}

	bars := make([]models.PriceBar, 0, len(resp.Series))
	for date, entry := range resp.Series {
		bar, err := toPriceBar(date, entry)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", date, err)
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })

	if maxBars > 0 && len(bars) > maxBars {
		bars = bars[len(bars)-maxBars:]
	}
	return bars, nil
}

func toPriceBar(date string, entry models.DailySeriesEntry) (models.PriceBar, error) {
	if _, err := time.Parse(barDateLayout, date); err != nil {
		return models.PriceBar{}, fmt.Errorf("invalid date: %w", err)
	}

	prices := []struct {
		name  string
		value string
	}{
		{"open", entry.Open},
		{"high", entry.High},
		{"low", entry.Low},
		{"close", entry.Close},
	}
	for _, p := range prices {
		if _, err := decimal.NewFromString(p.value); err != nil {
			return models.PriceBar{}, fmt.Errorf("invalid %s %q", p.name, p.value)
		}
	}

	volume, err := strconv.ParseInt(entry.Volume, 10, 64)
	if err != nil || volume < 0 {
		return models.PriceBar{}, fmt.Errorf("invalid volume %q", entry.Volume)
	}

	return models.PriceBar{
		Date:   date,
		Open:   entry.Open,
		High:   entry.High,
		Low:    entry.Low,
		Close:  entry.Close,
		Volume: entry.Volume,
	}, nil
}

func missingSeriesError(resp *models.DailySeriesResponse) error {
	if resp == nil {
		return ErrMissingSeries
	}

	var details []string
	for _, msg := range []string{resp.ErrorMessage, resp.Note, resp.Information} {
		if msg != "" {
			details = append(details, msg)
		}
	}
	if len(details) == 0 {
		return ErrMissingSeries
	}
	return errors.Join(ErrMissingSeries, errors.New(strings.Join(details, "; ")))
}
