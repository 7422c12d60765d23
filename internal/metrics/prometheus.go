package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Collection metrics
	MentionsCollected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickerflow_mentions_collected_total",
			Help: "Mentions kept after dedup and recency filtering",
		},
		[]string{"community"},
	)

	SearchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickerflow_search_failures_total",
			Help: "Community searches that failed and were skipped",
		},
		[]string{"community"},
	)

	ScoreFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickerflow_score_failures_total",
			Help: "Scoring oracle calls that produced no record",
		},
		[]string{"stage"}, // stage: mention|aggregate
	)

	// Price cache metrics
	PriceCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickerflow_price_cache_lookups_total",
			Help: "Price series lookups by outcome",
		},
		[]string{"outcome"}, // outcome: hit|refresh|error
	)

	// HTTP metrics
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tickerflow_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 90},
		},
		[]string{"route", "method", "status"},
	)
)

func init() {
	prometheus.MustRegister(MentionsCollected)
	prometheus.MustRegister(SearchFailures)
	prometheus.MustRegister(ScoreFailures)
	prometheus.MustRegister(PriceCacheLookups)
	prometheus.MustRegister(HTTPRequestDuration)
}

// Handler returns the Prometheus exposition handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(duration.Seconds())
}
