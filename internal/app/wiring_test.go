package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/tickerflow/config"
	"github.com/spacesedan/tickerflow/internal/sentiment"
	"github.com/spacesedan/tickerflow/internal/stockdata"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.PriceCache.FilePath = filepath.Join(t.TempDir(), "stock_cache.json")
	return cfg
}

func TestScoring(t *testing.T) {
	cfg := testConfig(t)

	scorer, agg, err := Scoring(cfg)
	require.NoError(t, err)
	assert.IsType(t, &sentiment.OracleScorer{}, scorer)
	assert.IsType(t, &sentiment.OracleAggregator{}, agg)

	cfg.Scorer.Backend = config.ScorerBackendVader
	scorer, agg, err = Scoring(cfg)
	require.NoError(t, err)
	assert.IsType(t, sentiment.VaderScorer{}, scorer)
	assert.IsType(t, sentiment.WeightedVoteAggregator{}, agg)

	cfg.Scorer.Backend = "bert"
	_, _, err = Scoring(cfg)
	assert.Error(t, err)
}

func TestPriceStore(t *testing.T) {
	cfg := testConfig(t)

	store, closeStore, err := PriceStore(context.Background(), cfg)
	require.NoError(t, err)
	defer closeStore()
	assert.IsType(t, &stockdata.FileStore{}, store)

	cfg.PriceCache.Backend = config.CacheBackendMemory
	store, _, err = PriceStore(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &stockdata.MemoryStore{}, store)

	cfg.PriceCache.Backend = "sqlite"
	_, _, err = PriceStore(context.Background(), cfg)
	assert.Error(t, err)
}
