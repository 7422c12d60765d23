package processing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spacesedan/tickerflow/internal/metrics"
	"github.com/spacesedan/tickerflow/internal/models"
	"github.com/spacesedan/tickerflow/internal/sentiment"
)

const redditBaseURL = "https://reddit.com"

// Searcher is the community search capability. Every call may fail.
type Searcher interface {
	Search(ctx context.Context, community, term string, limit int) ([]models.RedditPost, error)
}

type Collector struct {
	searcher         Searcher
	scorer           sentiment.Scorer
	native           []string
	scoreConcurrency int
	now              func() time.Time
}

type CollectorOption func(*Collector)

// WithNativeCommunities marks communities that get InvestmentTerms.
func WithNativeCommunities(native []string) CollectorOption {
	return func(c *Collector) { c.native = native }
}

func WithScoreConcurrency(n int) CollectorOption {
	return func(c *Collector) {
		if n > 0 {
			c.scoreConcurrency = n
		}
	}
}

func WithNow(now func() time.Time) CollectorOption {
	return func(c *Collector) { c.now = now }
}

func NewCollector(searcher Searcher, scorer sentiment.Scorer, opts ...CollectorOption) *Collector {
	c := &Collector{
		searcher:         searcher,
		scorer:           scorer,
		scoreConcurrency: 1,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect searches one community with every term and returns the scored
// mentions created within window of now. A post is kept once, under the first
// term that surfaced it. Posts created exactly at now-window are kept.
// A failed search yields no mentions for the whole community and an error
// wrapping the search failure.
func (c *Collector) Collect(ctx context.Context, community string, terms []string, limit int, window time.Duration) ([]models.Mention, error) {
	start := time.Now()
	cutoff := c.now().Add(-window)
	seen := make(map[string]struct{})
	var kept []models.RedditPost

	for _, term := range ExpandTerms(community, terms, c.native) {
		posts, err := c.searcher.Search(ctx, community, term, limit)
		if err != nil {
			metrics.SearchFailures.WithLabelValues(community).Inc()
			slog.Warn("[Collector] Search failed, skipping community",
				slog.String("community", community),
				slog.String("term", term),
				slog.String("error", err.Error()))
			return []models.Mention{}, fmt.Errorf("[Collector] search r/%s for %q: %w", community, term, err)
		}

		added := 0
		for _, post := range posts {
			if _, ok := seen[post.ID]; ok {
				continue
			}
			if postTime(post).Before(cutoff) {
				continue
			}
			seen[post.ID] = struct{}{}
			kept = append(kept, post)
			added++
		}

		slog.Debug("[Collector] Term searched",
			slog.String("community", community),
			slog.String("term", term),
			slog.Int("returned", len(posts)),
			slog.Int("kept", added))
	}

	mentions := c.enrich(ctx, community, kept)
	metrics.MentionsCollected.WithLabelValues(community).Add(float64(len(mentions)))

	slog.Info("[Collector] Community collected",
		slog.String("community", community),
		slog.Int("mentions", len(mentions)),
		slog.Duration("duration", time.Since(start)))
	return mentions, nil
}

// enrich scores every post with bounded concurrency. The output order matches
// posts. A failed score leaves Sentiment nil.
func (c *Collector) enrich(ctx context.Context, community string, posts []models.RedditPost) []models.Mention {
	mentions := make([]models.Mention, len(posts))

	var g errgroup.Group
	g.SetLimit(c.scoreConcurrency)

	for i, post := range posts {
		i, post := i, post
		mentions[i] = toMention(community, post)
		g.Go(func() error {
			record, err := c.scorer.Score(ctx, sentiment.MentionText(post.Title, post.Selftext))
			if err != nil {
				metrics.ScoreFailures.WithLabelValues("mention").Inc()
				slog.Warn("[Collector] Failed to score mention",
					slog.String("community", community),
					slog.String("post_id", post.ID),
					slog.String("error", err.Error()))
				return nil
			}
			mentions[i].Sentiment = record
			return nil
		})
	}
	_ = g.Wait()

	return mentions
}

func toMention(community string, post models.RedditPost) models.Mention {
	return models.Mention{
		PostID:       post.ID,
		Title:        post.Title,
		Content:      post.Selftext,
		Source:       community,
		Timestamp:    postTime(post),
		Upvotes:      post.Score,
		CommentCount: post.NumComments,
		URL:          redditBaseURL + post.Permalink,
	}
}

func postTime(post models.RedditPost) time.Time {
	sec, frac := math.Modf(post.CreatedUTC)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
}
