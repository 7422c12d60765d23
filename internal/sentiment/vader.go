package sentiment

import (
	"context"
	"fmt"
	"html"
	"math"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"

	"github.com/spacesedan/tickerflow/internal/models"
)

const vaderThreshold = 0.20

var (
	analyzer    = govader.NewSentimentIntensityAnalyzer()
	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern  = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagPattern  = regexp.MustCompile(`<[^>]*>`)
)

func RemoveLinks(input string) string {
	input = linkPattern.ReplaceAllString(input, "$1") // Keep only the text
	return urlPattern.ReplaceAllString(input, "")
}

// ConvertMarkdownToText renders Reddit markdown and flattens it to a single
// line of plain text without links.
func ConvertMarkdownToText(input string) string {
	input = RemoveLinks(input)
	output := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	plain := html.UnescapeString(tagPattern.ReplaceAllString(string(output), " "))
	return strings.Join(strings.Fields(plain), " ")
}

func AnalyzeWithVADER(text string) (float64, models.SentimentLabel) {
	score := analyzer.PolarityScores(ConvertMarkdownToText(text)).Compound

	switch {
	case score >= vaderThreshold:
		return score, models.SentimentPositive
	case score <= -vaderThreshold:
		return score, models.SentimentNegative
	default:
		return score, models.SentimentNeutral
	}
}

// VaderScorer scores text locally with the VADER lexicon. It never fails and
// needs no credentials.
type VaderScorer struct{}

func (VaderScorer) Score(_ context.Context, text string) (*models.SentimentRecord, error) {
	score, label := AnalyzeWithVADER(text)

	confidence := math.Abs(score)
	if label == models.SentimentNeutral {
		confidence = 1 - confidence
	}

	return &models.SentimentRecord{
		Sentiment:   label,
		Confidence:  math.Min(1, confidence),
		Explanation: fmt.Sprintf("VADER compound score %.3f", score),
	}, nil
}
