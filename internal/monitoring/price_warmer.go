package monitoring

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/spacesedan/tickerflow/internal/models"
)

// PriceSource is read on every tick. A fresh record is served as is, a stale
// one is refetched.
type PriceSource interface {
	Get(ctx context.Context) ([]models.PriceBar, error)
}

// WarmPriceCache reads the price series once immediately and then every
// interval until ctx is done, storing whether the read succeeded in healthy.
// A non-positive interval disables the loop.
func WarmPriceCache(ctx context.Context, source PriceSource, interval time.Duration, healthy *atomic.Bool) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	check := func() {
		checkCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()

		_, err := source.Get(checkCtx)
		wasHealthy := healthy.Swap(err == nil)
		if err != nil {
			slog.Warn("[HealthCheck] Price source is unhealthy", slog.String("error", err.Error()))
			return
		}
		if !wasHealthy {
			slog.Info("[HealthCheck] Price source recovered")
		}
	}

	check()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}
