package models

import "time"

// Mention is a post referencing the tracked ticker. Sentiment is nil when the
// scoring oracle could not produce a record for it.
type Mention struct {
	PostID       string           `json:"post_id"`
	Title        string           `json:"title"`
	Content      string           `json:"content"`
	Source       string           `json:"source"`
	Timestamp    time.Time        `json:"timestamp"`
	Upvotes      int              `json:"upvotes"`
	CommentCount int              `json:"comment_count"`
	URL          string           `json:"url"`
	Sentiment    *SentimentRecord `json:"sentiment"`
}

// MentionBatch is the merged result of one aggregation run. Sources counts
// the communities searched; FailedSources lists those whose search failed, in
// configured order. An empty Mentions slice with no failed sources is a valid
// outcome, not a failure.
type MentionBatch struct {
	Mentions      []Mention
	Count         int
	GeneratedAt   time.Time
	Sources       int
	FailedSources []string
}

// Unavailable reports that every community failed, so an empty result says
// nothing about actual mentions.
func (b MentionBatch) Unavailable() bool {
	return b.Sources > 0 && len(b.FailedSources) == b.Sources
}

func (b MentionBatch) Empty() bool {
	return len(b.Mentions) == 0
}

// SentimentRecords returns the sentiment of every mention in order, nil
// entries included.
func (b MentionBatch) SentimentRecords() []*SentimentRecord {
	records := make([]*SentimentRecord, 0, len(b.Mentions))
	for _, m := range b.Mentions {
		records = append(records, m.Sentiment)
	}
	return records
}
