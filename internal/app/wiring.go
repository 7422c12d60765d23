package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spacesedan/tickerflow/config"
	"github.com/spacesedan/tickerflow/internal/clients"
	"github.com/spacesedan/tickerflow/internal/processing"
	"github.com/spacesedan/tickerflow/internal/sentiment"
	"github.com/spacesedan/tickerflow/internal/stockdata"
)

// Scoring returns the per-mention scorer and the matching aggregator for the
// configured backend.
func Scoring(cfg *config.Config) (sentiment.Scorer, sentiment.Aggregator, error) {
	switch cfg.Scorer.Backend {
	case config.ScorerBackendOpenAI:
		scorer := sentiment.NewOracleScorer(clients.NewOpenAIClient(cfg.OpenAI))
		return scorer, sentiment.NewOracleAggregator(scorer), nil
	case config.ScorerBackendVader:
		return sentiment.VaderScorer{}, sentiment.WeightedVoteAggregator{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown scorer backend %q", cfg.Scorer.Backend)
	}
}

func MentionAggregator(cfg *config.Config, scorer sentiment.Scorer) *processing.Aggregator {
	collector := processing.NewCollector(
		clients.NewRedditClient(cfg.Reddit),
		scorer,
		processing.WithNativeCommunities(cfg.Mentions.NativeCommunities),
		processing.WithScoreConcurrency(cfg.Mentions.ScoreConcurrency),
	)
	return processing.NewAggregator(collector, cfg.Mentions.RecencyWindow, cfg.Mentions.CollectConcurrency)
}

// PriceStore opens the configured durable record. The returned close func
// releases any connection it holds.
func PriceStore(ctx context.Context, cfg *config.Config) (stockdata.Store, func(), error) {
	noop := func() {}

	switch cfg.PriceCache.Backend {
	case config.CacheBackendFile:
		return stockdata.NewFileStore(cfg.PriceCache.FilePath), noop, nil
	case config.CacheBackendMemory:
		return stockdata.NewMemoryStore(), noop, nil
	case config.CacheBackendValkey:
		client, err := clients.NewValkeyClient(ctx, cfg.Valkey)
		if err != nil {
			return nil, noop, err
		}
		return stockdata.NewValkeyStore(client, cfg.Valkey.Key), client.Close, nil
	case config.CacheBackendDynamoDB:
		client, err := clients.NewDynamoDBClient(ctx, cfg.DynamoDB)
		if err != nil {
			return nil, noop, err
		}
		return stockdata.NewDynamoStore(client, cfg.DynamoDB.Table, cfg.DynamoDB.Key), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown price cache backend %q", cfg.PriceCache.Backend)
	}
}

func PriceCache(cfg *config.Config, store stockdata.Store) *stockdata.PriceCache {
	slog.Info("[App] Price cache configured",
		slog.String("backend", cfg.PriceCache.Backend),
		slog.Duration("ttl", cfg.PriceCache.TTL))

	return stockdata.NewPriceCache(
		clients.NewAlphaVantageClient(cfg.AlphaVantage),
		store,
		cfg.Ticker.Symbol,
		stockdata.WithTTL(cfg.PriceCache.TTL),
		stockdata.WithMaxBars(cfg.PriceCache.MaxBars),
	)
}
