package sentiment

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spacesedan/tickerflow/internal/models"
)

const (
	systemPrompt = `You are a financial sentiment analyzer. Analyze the sentiment of investment-related text and return ONLY a JSON object with the following structure: {"sentiment": "positive/negative/neutral", "confidence": 0.0-1.0, "explanation": "brief explanation"}`

	userPromptPrefix = "Analyze the investment sentiment of this text: "

	maxTextRunes = 4000
)

// Scorer turns a text into a sentiment record. An error means no record is
// available for the text.
type Scorer interface {
	Score(ctx context.Context, text string) (*models.SentimentRecord, error)
}

// Completer is the chat completion capability the oracle scorer runs on.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// OracleScorer asks a language model for a strict JSON sentiment record.
// Each call is a single attempt.
type OracleScorer struct {
	completer Completer
}

func NewOracleScorer(completer Completer) *OracleScorer {
	return &OracleScorer{completer: completer}
}

func (s *OracleScorer) Score(ctx context.Context, text string) (*models.SentimentRecord, error) {
	raw, err := s.completer.Complete(ctx, systemPrompt, userPromptPrefix+text)
	if err != nil {
		return nil, fmt.Errorf("[Scorer] completion: %w", err)
	}

	record, err := ParseRecord(raw)
	if err != nil {
		return nil, fmt.Errorf("[Scorer] parse: %w", err)
	}
	return record, nil
}

// MentionText builds the text scored for one post: the title followed by the
// body flattened from markdown, capped at maxTextRunes.
func MentionText(title, body string) string {
	text := strings.TrimSpace(title + " " + ConvertMarkdownToText(body))
	if utf8.RuneCountInString(text) <= maxTextRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxTextRunes])
}
