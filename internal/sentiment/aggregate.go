package sentiment

import (
	"context"
	"fmt"
	"strings"

	"github.com/spacesedan/tickerflow/internal/models"
)

const emptyAggregateExplanation = "No valid sentiment records to aggregate"

// Aggregator merges per-mention records into one consensus. Nil records are
// skipped. With no valid records the result is neutral with confidence 0.
type Aggregator interface {
	Aggregate(ctx context.Context, records []*models.SentimentRecord) (*models.AggregateSentiment, error)
}

// OracleAggregator asks the scoring oracle for a confidence-weighted verdict
// over all valid records.
type OracleAggregator struct {
	scorer Scorer
}

func NewOracleAggregator(scorer Scorer) *OracleAggregator {
	return &OracleAggregator{scorer: scorer}
}

func (a *OracleAggregator) Aggregate(ctx context.Context, records []*models.SentimentRecord) (*models.AggregateSentiment, error) {
	valid := validRecords(records)
	if len(valid) == 0 {
		return emptyAggregate(), nil
	}

	record, err := a.scorer.Score(ctx, BuildAggregatePrompt(valid))
	if err != nil {
		return nil, fmt.Errorf("[SentimentAggregator] score %d records: %w", len(valid), err)
	}

	return &models.AggregateSentiment{
		Sentiment:   record.Sentiment,
		Confidence:  record.Confidence,
		Explanation: record.Explanation,
		SampleSize:  len(valid),
	}, nil
}

// BuildAggregatePrompt enumerates every record for the oracle and tells it to
// weigh each one by its confidence.
func BuildAggregatePrompt(records []models.SentimentRecord) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("The following %d sentiment judgments were made independently, one per social-media post about the same stock. ", len(records)))
	sb.WriteString("Treat each line as a separate per-post judgment. ")
	sb.WriteString("Use each judgment's confidence as its weight when synthesizing the overall investment sentiment, so high-confidence judgments count more than low-confidence ones. ")
	sb.WriteString("Give the overall verdict with your own confidence and a brief explanation.\n\n")

	for i, r := range records {
		sb.WriteString(fmt.Sprintf("%d. sentiment: %s, confidence: %.2f, explanation: %s\n",
			i+1, r.Sentiment, r.Confidence, r.Explanation))
	}
	return sb.String()
}

// WeightedVoteAggregator sums confidence per label and picks the heaviest.
// It is used when no language model is configured.
type WeightedVoteAggregator struct{}

func (WeightedVoteAggregator) Aggregate(_ context.Context, records []*models.SentimentRecord) (*models.AggregateSentiment, error) {
	valid := validRecords(records)
	if len(valid) == 0 {
		return emptyAggregate(), nil
	}

	weights := map[models.SentimentLabel]float64{}
	var total float64
	for _, r := range valid {
		weights[r.Sentiment] += r.Confidence
		total += r.Confidence
	}
	if total == 0 {
		return &models.AggregateSentiment{
			Sentiment:   models.SentimentNeutral,
			Explanation: "All records carried zero confidence",
			SampleSize:  len(valid),
		}, nil
	}

	winner := models.SentimentNeutral
	best := weights[models.SentimentNeutral]
	for _, label := range []models.SentimentLabel{models.SentimentPositive, models.SentimentNegative} {
		if weights[label] > best {
			winner, best = label, weights[label]
		}
	}
	if weights[models.SentimentPositive] == weights[models.SentimentNegative] && winner != models.SentimentNeutral {
		winner, best = models.SentimentNeutral, weights[models.SentimentNeutral]
	}

	return &models.AggregateSentiment{
		Sentiment:  winner,
		Confidence: best / total,
		Explanation: fmt.Sprintf("Confidence-weighted vote over %d records: positive %.2f, negative %.2f, neutral %.2f",
			len(valid), weights[models.SentimentPositive], weights[models.SentimentNegative], weights[models.SentimentNeutral]),
		SampleSize: len(valid),
	}, nil
}

func validRecords(records []*models.SentimentRecord) []models.SentimentRecord {
	valid := make([]models.SentimentRecord, 0, len(records))
	for _, r := range records {
		if r != nil {
			valid = append(valid, *r)
		}
	}
	return valid
}

func emptyAggregate() *models.AggregateSentiment {
	return &models.AggregateSentiment{
		Sentiment:   models.SentimentNeutral,
		Confidence:  0,
		Explanation: emptyAggregateExplanation,
	}
}
