package clients

import "errors"

const USER_AGENT = "tickerflow-client/1.0 (+https://github.com/spacesedan/tickerflow)"

var (
	// ErrUpstreamAuth means the upstream rejected our credentials.
	ErrUpstreamAuth = errors.New("upstream rejected credentials")
	// ErrUpstreamFormat means the upstream answered with an unexpected shape.
	ErrUpstreamFormat = errors.New("unexpected upstream response")
	// ErrUpstreamUnavailable covers network failures, throttling and 5xx answers.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
