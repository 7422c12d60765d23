package models

type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

func (l SentimentLabel) Valid() bool {
	switch l {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// SentimentRecord is the judgment of investment sentiment for one text.
// Confidence is in [0, 1].
type SentimentRecord struct {
	Sentiment   SentimentLabel `json:"sentiment"`
	Confidence  float64        `json:"confidence"`
	Explanation string         `json:"explanation"`
}

// AggregateSentiment is the confidence-weighted consensus over the records
// of one request. SampleSize counts the records that contributed.
type AggregateSentiment struct {
	Sentiment   SentimentLabel `json:"sentiment"`
	Confidence  float64        `json:"confidence"`
	Explanation string         `json:"explanation"`
	SampleSize  int            `json:"sample_size"`
}
