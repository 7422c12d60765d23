package handler

import (
	"time"

	"github.com/spacesedan/tickerflow/internal/models"
)

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type HealthResponse struct {
	Status             string `json:"status"`
	PriceSourceHealthy bool   `json:"price_source_healthy"`
}

type MentionResponse struct {
	PostID       string                  `json:"post_id"`
	Title        string                  `json:"title"`
	Content      string                  `json:"content"`
	Source       string                  `json:"source"`
	Timestamp    string                  `json:"timestamp"`
	Upvotes      int                     `json:"upvotes"`
	CommentCount int                     `json:"comment_count"`
	URL          string                  `json:"url"`
	Sentiment    *models.SentimentRecord `json:"sentiment"`
}

type MentionsResponse struct {
	Mentions       []MentionResponse          `json:"mentions"`
	Count          int                        `json:"count"`
	Timestamp      string                     `json:"timestamp"`
	FinalSentiment *models.AggregateSentiment `json:"final_sentiment,omitempty"`
	Message        string                     `json:"message,omitempty"`
	FailedSources  []string                   `json:"failed_sources,omitempty"`
}

func toMentionResponses(mentions []models.Mention) []MentionResponse {
	res := make([]MentionResponse, 0, len(mentions))
	for _, m := range mentions {
		res = append(res, MentionResponse{
			PostID:       m.PostID,
			Title:        m.Title,
			Content:      m.Content,
			Source:       m.Source,
			Timestamp:    m.Timestamp.Format(time.RFC3339),
			Upvotes:      m.Upvotes,
			CommentCount: m.CommentCount,
			URL:          m.URL,
			Sentiment:    m.Sentiment,
		})
	}
	return res
}
