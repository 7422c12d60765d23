package processing

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spacesedan/tickerflow/internal/models"
)

// MentionCollector collects the mentions of one community. An error means the
// community could not be searched.
type MentionCollector interface {
	Collect(ctx context.Context, community string, terms []string, limit int, window time.Duration) ([]models.Mention, error)
}

type Aggregator struct {
	collector   MentionCollector
	window      time.Duration
	concurrency int
	now         func() time.Time
}

func NewAggregator(collector MentionCollector, window time.Duration, concurrency int) *Aggregator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Aggregator{
		collector:   collector,
		window:      window,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Aggregate collects every community in parallel and merges the results in
// the order of communities, so a post seen in several communities is
// attributed to the earliest one regardless of which finished first. The
// merged mentions are sorted newest first; equal timestamps keep merge order.
// Communities whose search failed are listed in FailedSources.
func (a *Aggregator) Aggregate(ctx context.Context, communities, terms []string, limit int) models.MentionBatch {
	start := time.Now()
	results := make([][]models.Mention, len(communities))
	failed := make([]bool, len(communities))

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, community := range communities {
		i, community := i, community
		g.Go(func() error {
			mentions, err := a.collector.Collect(ctx, community, terms, limit, a.window)
			results[i] = mentions
			failed[i] = err != nil
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]struct{})
	merged := make([]models.Mention, 0)
	var failedSources []string
	for i, mentions := range results {
		if failed[i] {
			failedSources = append(failedSources, communities[i])
		}
		dropped := 0
		for _, m := range mentions {
			if _, ok := seen[m.PostID]; ok {
				dropped++
				continue
			}
			seen[m.PostID] = struct{}{}
			merged = append(merged, m)
		}
		if dropped > 0 {
			slog.Debug("[Aggregator] Dropped cross-posted mentions",
				slog.String("community", communities[i]),
				slog.Int("dropped", dropped))
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})

	slog.Info("[Aggregator] Mentions aggregated",
		slog.Int("communities", len(communities)),
		slog.Int("mentions", len(merged)),
		slog.Int("failed", len(failedSources)),
		slog.Duration("duration", time.Since(start)))

	if len(communities) > 0 && len(failedSources) == len(communities) {
		slog.Error("[Aggregator] Every community search failed",
			slog.Any("communities", failedSources))
	}

	return models.MentionBatch{
		Mentions:      merged,
		Count:         len(merged),
		GeneratedAt:   a.now().UTC(),
		Sources:       len(communities),
		FailedSources: failedSources,
	}
}
