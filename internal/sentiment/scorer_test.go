package sentiment

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/tickerflow/internal/models"
)

type fakeCompleter struct {
	reply string
	err   error

	calls  int
	system string
	user   string
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.calls++
	f.system = system
	f.user = user
	return f.reply, f.err
}

func TestOracleScorer_Score(t *testing.T) {
	completer := &fakeCompleter{reply: `{"sentiment": "positive", "confidence": 0.9, "explanation": "Beat estimates"}`}
	scorer := NewOracleScorer(completer)

	record, err := scorer.Score(context.Background(), "NVDA crushed earnings")
	require.NoError(t, err)

	assert.Equal(t, models.SentimentPositive, record.Sentiment)
	assert.Equal(t, 0.9, record.Confidence)
	assert.Equal(t, 1, completer.calls)
	assert.Contains(t, completer.system, "ONLY a JSON object")
	assert.Equal(t, "Analyze the investment sentiment of this text: NVDA crushed earnings", completer.user)
}

func TestOracleScorer_Failures(t *testing.T) {
	upstream := errors.New("connection reset")

	_, err := NewOracleScorer(&fakeCompleter{err: upstream}).Score(context.Background(), "text")
	assert.ErrorIs(t, err, upstream)

	_, err = NewOracleScorer(&fakeCompleter{reply: "no idea"}).Score(context.Background(), "text")
	assert.ErrorIs(t, err, ErrUnparseable)
}

func TestMentionText(t *testing.T) {
	text := MentionText("NVDA to the moon", "**Huge** [earnings](https://example.com/e) beat\n\n- data center")
	assert.Equal(t, "NVDA to the moon Huge earnings beat data center", text)

	long := MentionText("title", strings.Repeat("é", 5000))
	assert.Equal(t, maxTextRunes, utf8.RuneCountInString(long))
	assert.True(t, strings.HasPrefix(long, "title "))
}

func TestVaderScorer(t *testing.T) {
	scorer := VaderScorer{}

	pos, err := scorer.Score(context.Background(), "This is a great, amazing, wonderful company. I love it!")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentPositive, pos.Sentiment)
	assert.Greater(t, pos.Confidence, 0.2)

	neg, err := scorer.Score(context.Background(), "Terrible, awful results. I hate this horrible stock.")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentNegative, neg.Sentiment)

	neutral, err := scorer.Score(context.Background(), "The company reports on Wednesday.")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentNeutral, neutral.Sentiment)
	assert.InDelta(t, 1.0, neutral.Confidence, 0.2)
}
