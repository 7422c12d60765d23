package models

import "time"

// PriceBar is one trading day. Prices and volume keep the upstream decimal
// string form.
type PriceBar struct {
	Date   string `json:"date" dynamodbav:"date"`
	Open   string `json:"open" dynamodbav:"open"`
	High   string `json:"high" dynamodbav:"high"`
	Low    string `json:"low" dynamodbav:"low"`
	Close  string `json:"close" dynamodbav:"close"`
	Volume string `json:"volume" dynamodbav:"volume"`
}

// CacheEntry is the durable price series record.
type CacheEntry struct {
	CapturedAt time.Time  `json:"timestamp" dynamodbav:"timestamp"`
	Data       []PriceBar `json:"data" dynamodbav:"data"`
}

const DailySeriesField = "Time Series (Daily)"

// DailySeriesResponse is the TIME_SERIES_DAILY payload. Series is nil when
// the upstream answered with a note or an error message instead.
type DailySeriesResponse struct {
	MetaData     map[string]string           `json:"Meta Data"`
	Series       map[string]DailySeriesEntry `json:"Time Series (Daily)"`
	Note         string                      `json:"Note"`
	Information  string                      `json:"Information"`
	ErrorMessage string                      `json:"Error Message"`
}

type DailySeriesEntry struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}
