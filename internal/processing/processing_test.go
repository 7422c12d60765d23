package processing

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/tickerflow/internal/clients"
	"github.com/spacesedan/tickerflow/internal/models"
)

const window = 8 * 24 * time.Hour

var now = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return now }

type fakeSearcher struct {
	mu      sync.Mutex
	results map[string]map[string][]models.RedditPost // community -> term -> posts
	errs    map[string]error
	calls   map[string][]string
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		results: map[string]map[string][]models.RedditPost{},
		errs:    map[string]error{},
		calls:   map[string][]string{},
	}
}

func (f *fakeSearcher) add(community, term string, posts ...models.RedditPost) {
	if f.results[community] == nil {
		f.results[community] = map[string][]models.RedditPost{}
	}
	f.results[community][term] = append(f.results[community][term], posts...)
}

func (f *fakeSearcher) Search(_ context.Context, community, term string, _ int) ([]models.RedditPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[community] = append(f.calls[community], term)
	if err := f.errs[community]; err != nil {
		return nil, err
	}
	return f.results[community][term], nil
}

type fakeScorer struct{}

func (fakeScorer) Score(_ context.Context, text string) (*models.SentimentRecord, error) {
	if strings.Contains(text, "fail") {
		return nil, errors.New("oracle unavailable")
	}
	return &models.SentimentRecord{Sentiment: models.SentimentPositive, Confidence: 0.7, Explanation: text}, nil
}

func post(id string, age time.Duration) models.RedditPost {
	return models.RedditPost{
		ID:         id,
		Title:      "title " + id,
		Selftext:   "body",
		CreatedUTC: float64(now.Add(-age).Unix()),
		Score:      10,
		Permalink:  "/r/x/comments/" + id,
	}
}

func ids(mentions []models.Mention) []string {
	out := make([]string, 0, len(mentions))
	for _, m := range mentions {
		out = append(out, m.PostID)
	}
	return out
}

func newTestAggregator(searcher Searcher, concurrency int) *Aggregator {
	collector := NewCollector(searcher, fakeScorer{},
		WithNow(fixedNow),
		WithScoreConcurrency(4),
		WithNativeCommunities([]string{"nvidia"}))
	agg := NewAggregator(collector, window, concurrency)
	agg.now = fixedNow
	return agg
}

func TestAggregate_FirstCommunityWinsAndOldPostsDropped(t *testing.T) {
	searcher := newFakeSearcher()
	searcher.add("A", "NVDA", post("p1", 2*24*time.Hour))
	searcher.add("B", "NVDA", post("p1", 2*24*time.Hour), post("p2", 9*24*time.Hour))

	for _, concurrency := range []int{1, 2} {
		batch := newTestAggregator(searcher, concurrency).Aggregate(context.Background(), []string{"A", "B"}, []string{"NVDA"}, 10)

		require.Equal(t, 1, batch.Count)
		assert.Equal(t, "p1", batch.Mentions[0].PostID)
		assert.Equal(t, "A", batch.Mentions[0].Source)
		assert.Equal(t, now, batch.GeneratedAt)
	}
}

func TestCollect_DedupAcrossTerms(t *testing.T) {
	searcher := newFakeSearcher()
	first := post("p1", time.Hour)
	first.Title = "first sighting"
	second := post("p1", time.Hour)
	second.Title = "second sighting"
	searcher.add("stocks", "NVDA", first, post("p2", 2*time.Hour))
	searcher.add("stocks", "Nvidia", second, post("p3", 3*time.Hour))

	collector := NewCollector(searcher, fakeScorer{}, WithNow(fixedNow))
	mentions, err := collector.Collect(context.Background(), "stocks", []string{"NVDA", "Nvidia"}, 10, window)
	require.NoError(t, err)

	assert.Equal(t, []string{"p1", "p2", "p3"}, ids(mentions))
	assert.Equal(t, "first sighting", mentions[0].Title)
}

func TestCollect_RecencyBoundaryIsInclusive(t *testing.T) {
	searcher := newFakeSearcher()
	searcher.add("stocks", "NVDA",
		post("at-boundary", window),
		post("just-outside", window+time.Second),
		post("inside", window-time.Second))

	collector := NewCollector(searcher, fakeScorer{}, WithNow(fixedNow))
	mentions, err := collector.Collect(context.Background(), "stocks", []string{"NVDA"}, 10, window)
	require.NoError(t, err)

	assert.Equal(t, []string{"at-boundary", "inside"}, ids(mentions))
}

func TestCollect_NativeCommunityGetsInvestmentTerms(t *testing.T) {
	searcher := newFakeSearcher()
	collector := NewCollector(searcher, fakeScorer{}, WithNow(fixedNow), WithNativeCommunities([]string{"NVIDIA"}))

	_, err := collector.Collect(context.Background(), "nvidia", []string{"NVDA"}, 10, window)
	require.NoError(t, err)
	_, err = collector.Collect(context.Background(), "stocks", []string{"NVDA"}, 10, window)
	require.NoError(t, err)

	assert.Equal(t, []string{"NVDA", "stock", "shares", "invest", "investment", "investing"}, searcher.calls["nvidia"])
	assert.Equal(t, []string{"NVDA"}, searcher.calls["stocks"])
}

func TestCollect_ScoreFailureLeavesSentimentNil(t *testing.T) {
	searcher := newFakeSearcher()
	bad := post("p2", 2*time.Hour)
	bad.Title = "this will fail"
	searcher.add("stocks", "NVDA", post("p1", time.Hour), bad, post("p3", 3*time.Hour))

	collector := NewCollector(searcher, fakeScorer{}, WithNow(fixedNow), WithScoreConcurrency(3))
	mentions, err := collector.Collect(context.Background(), "stocks", []string{"NVDA"}, 10, window)
	require.NoError(t, err)

	require.Len(t, mentions, 3)
	assert.NotNil(t, mentions[0].Sentiment)
	assert.Nil(t, mentions[1].Sentiment)
	assert.NotNil(t, mentions[2].Sentiment)
	assert.Equal(t, "title p1 body", mentions[0].Sentiment.Explanation)
	assert.Equal(t, "https://reddit.com/r/x/comments/p1", mentions[0].URL)
	assert.Equal(t, now.Add(-time.Hour), mentions[0].Timestamp)
}

func TestAggregate_SearchFailureIsolatedToCommunity(t *testing.T) {
	searcher := newFakeSearcher()
	searcher.errs["wallstreetbets"] = clients.ErrUpstreamAuth
	searcher.add("stocks", "NVDA", post("p1", time.Hour))

	batch := newTestAggregator(searcher, 2).Aggregate(context.Background(), []string{"wallstreetbets", "stocks"}, []string{"NVDA"}, 10)

	assert.Equal(t, []string{"p1"}, ids(batch.Mentions))
	assert.Equal(t, []string{"NVDA"}, searcher.calls["wallstreetbets"])
	assert.Equal(t, []string{"wallstreetbets"}, batch.FailedSources)
	assert.False(t, batch.Unavailable())
}

func TestCollect_SearchFailureReturnsError(t *testing.T) {
	searcher := newFakeSearcher()
	searcher.errs["stocks"] = clients.ErrUpstreamUnavailable
	collector := NewCollector(searcher, fakeScorer{}, WithNow(fixedNow))

	mentions, err := collector.Collect(context.Background(), "stocks", []string{"NVDA", "Nvidia"}, 10, window)

	require.ErrorIs(t, err, clients.ErrUpstreamUnavailable)
	assert.Empty(t, mentions)
	assert.Equal(t, []string{"NVDA"}, searcher.calls["stocks"])
}

func TestAggregate_SortedNewestFirstAndStable(t *testing.T) {
	searcher := newFakeSearcher()
	searcher.add("A", "NVDA", post("a-old", 5*time.Hour), post("a-tie", 2*time.Hour))
	searcher.add("B", "NVDA", post("b-tie", 2*time.Hour), post("b-new", time.Hour))

	batch := newTestAggregator(searcher, 2).Aggregate(context.Background(), []string{"A", "B"}, []string{"NVDA"}, 10)

	assert.Equal(t, []string{"b-new", "a-tie", "b-tie", "a-old"}, ids(batch.Mentions))
}

func TestAggregate_NoMentions(t *testing.T) {
	batch := newTestAggregator(newFakeSearcher(), 2).Aggregate(context.Background(), []string{"A", "B"}, []string{"NVDA"}, 10)

	assert.True(t, batch.Empty())
	assert.Zero(t, batch.Count)
	assert.NotNil(t, batch.Mentions)
}

func TestAggregate_NoMentionsIsNotAnOutage(t *testing.T) {
	batch := newTestAggregator(newFakeSearcher(), 2).Aggregate(context.Background(), []string{"A", "B"}, []string{"NVDA"}, 10)

	assert.Empty(t, batch.FailedSources)
	assert.False(t, batch.Unavailable())
	assert.Equal(t, 2, batch.Sources)
}

func TestAggregate_AllCommunitiesFailed(t *testing.T) {
	searcher := newFakeSearcher()
	searcher.errs["A"] = clients.ErrUpstreamUnavailable
	searcher.errs["B"] = clients.ErrUpstreamAuth
	searcher.errs["C"] = clients.ErrUpstreamFormat

	for _, concurrency := range []int{1, 3} {
		batch := newTestAggregator(searcher, concurrency).Aggregate(context.Background(), []string{"A", "B", "C"}, []string{"NVDA"}, 10)

		assert.True(t, batch.Empty())
		assert.True(t, batch.Unavailable())
		assert.Equal(t, []string{"A", "B", "C"}, batch.FailedSources)
	}
}

func TestExpandTerms(t *testing.T) {
	assert.Equal(t, []string{"NVDA", "stock"}, ExpandTerms("stocks", []string{"NVDA", "stock", "NVDA"}, nil))
	assert.Equal(t,
		[]string{"NVDA", "stock", "shares", "invest", "investment", "investing"},
		ExpandTerms("Nvidia", []string{"NVDA", "stock"}, []string{"nvidia"}))
}
