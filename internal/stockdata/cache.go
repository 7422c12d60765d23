package stockdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/spacesedan/tickerflow/internal/metrics"
	"github.com/spacesedan/tickerflow/internal/models"
)

const (
	DefaultTTL            = time.Hour
	DefaultMaxBars        = 100
	DefaultRefreshTimeout = 30 * time.Second

	flightKey = "daily-series"
)

// SeriesFetcher is the market-data capability behind the cache.
type SeriesFetcher interface {
	FetchDailySeries(ctx context.Context, symbol string) (*models.DailySeriesResponse, error)
}

// ExternalSourceError means no usable price series could be obtained
// upstream. Nothing is written to the store when it is returned.
type ExternalSourceError struct {
	Symbol string
	Err    error
}

func (e *ExternalSourceError) Error() string {
	return fmt.Sprintf("price series for %s unavailable: %v", e.Symbol, e.Err)
}

func (e *ExternalSourceError) Unwrap() error {
	return e.Err
}

// PriceCache serves the daily series from the store while the record is
// younger than the TTL and refetches it once it is not. Concurrent refreshes
// collapse into one upstream call.
type PriceCache struct {
	fetcher SeriesFetcher
	store   Store
	symbol  string
	ttl     time.Duration
	maxBars int
	now     func() time.Time

	// bounds a shared refresh, which outlives any single caller's context
	refreshTimeout time.Duration

	mu    sync.Mutex
	group singleflight.Group
}

type Option func(*PriceCache)

func WithClock(now func() time.Time) Option {
	return func(c *PriceCache) { c.now = now }
}

func WithTTL(ttl time.Duration) Option {
	return func(c *PriceCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithMaxBars(n int) Option {
	return func(c *PriceCache) {
		if n > 0 {
			c.maxBars = n
		}
	}
}

func WithRefreshTimeout(d time.Duration) Option {
	return func(c *PriceCache) {
		if d > 0 {
			c.refreshTimeout = d
		}
	}
}

func NewPriceCache(fetcher SeriesFetcher, store Store, symbol string, opts ...Option) *PriceCache {
	c := &PriceCache{
		fetcher: fetcher,
		store:   store,
		symbol:  symbol,
		ttl:     DefaultTTL,
		maxBars: DefaultMaxBars,
		now:     time.Now,

		refreshTimeout: DefaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached series, refreshing it first when the record is
// missing, unreadable or at least ttl old.
//
// The refresh is shared by every concurrent caller and runs detached from
// their contexts, bounded by the refresh timeout. A caller whose ctx ends
// first gets ctx.Err() while the others keep waiting for the result.
func (c *PriceCache) Get(ctx context.Context) ([]models.PriceBar, error) {
	if bars, ok := c.fresh(ctx); ok {
		metrics.PriceCacheLookups.WithLabelValues("hit").Inc()
		return bars, nil
	}

	ch := c.group.DoChan(flightKey, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()

		c.mu.Lock()
		defer c.mu.Unlock()

		// another caller may have refreshed while we waited
		if bars, ok := c.fresh(flightCtx); ok {
			return bars, nil
		}
		return c.refreshLocked(flightCtx)
	})

	select {
	case <-ctx.Done():
		metrics.PriceCacheLookups.WithLabelValues("error").Inc()
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			metrics.PriceCacheLookups.WithLabelValues("error").Inc()
			return nil, res.Err
		}
		return res.Val.([]models.PriceBar), nil
	}
}

// Refresh fetches the series upstream regardless of the record's age.
func (c *PriceCache) Refresh(ctx context.Context) ([]models.PriceBar, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bars, err := c.refreshLocked(ctx)
	if err != nil {
		metrics.PriceCacheLookups.WithLabelValues("error").Inc()
	}
	return bars, err
}

// Invalidate drops the durable record so the next Get refetches.
func (c *PriceCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("[PriceCache] invalidate: %w", err)
	}
	slog.Info("[PriceCache] Cache invalidated", slog.String("symbol", c.symbol))
	return nil
}

func (c *PriceCache) fresh(ctx context.Context) ([]models.PriceBar, bool) {
	entry, err := c.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			slog.Warn("[PriceCache] Unreadable cache record, treating as empty",
				slog.String("symbol", c.symbol),
				slog.String("error", err.Error()))
		}
		return nil, false
	}

	now := c.now()
	if entry.CapturedAt.After(now) {
		slog.Warn("[PriceCache] Cache record captured in the future, treating as empty",
			slog.String("symbol", c.symbol),
			slog.Time("captured_at", entry.CapturedAt))
		return nil, false
	}
	if now.Sub(entry.CapturedAt) >= c.ttl {
		return nil, false
	}
	if entry.Data == nil {
		entry.Data = []models.PriceBar{}
	}
	return entry.Data, true
}

func (c *PriceCache) refreshLocked(ctx context.Context) ([]models.PriceBar, error) {
	start := time.Now()

	resp, err := c.fetcher.FetchDailySeries(ctx, c.symbol)
	if err != nil {
		return nil, &ExternalSourceError{Symbol: c.symbol, Err: err}
	}

	bars, err := transformSeries(resp, c.maxBars)
	if err != nil {
		slog.Error("[PriceCache] Rejected upstream price series",
			slog.String("symbol", c.symbol),
			slog.String("error", err.Error()))
		return nil, &ExternalSourceError{Symbol: c.symbol, Err: err}
	}

	entry := models.CacheEntry{CapturedAt: c.now().UTC(), Data: bars}
	if err := c.store.Save(ctx, entry); err != nil {
		slog.Warn("[PriceCache] Failed to persist price series",
			slog.String("symbol", c.symbol),
			slog.String("error", err.Error()))
	}

	metrics.PriceCacheLookups.WithLabelValues("refresh").Inc()
	slog.Info("[PriceCache] Price series refreshed",
		slog.String("symbol", c.symbol),
		slog.Int("bars", len(bars)),
		slog.Duration("duration", time.Since(start)))
	return bars, nil
}
