package sentiment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spacesedan/tickerflow/internal/models"
)

var ErrUnparseable = errors.New("unparseable sentiment record")

// ParseError keeps the oracle output that could not be turned into a record.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnparseable, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrUnparseable
}

// ParseRecord decodes {sentiment, confidence, explanation} from model output.
// Code fences and prose around the object are tolerated; a missing or
// unknown label, a missing confidence or one outside [0, 1] is not.
func ParseRecord(raw string) (*models.SentimentRecord, error) {
	content := cleanJSONResponse(raw)
	if content == "" {
		return nil, &ParseError{Raw: raw, Reason: "empty response"}
	}

	var parsed struct {
		Sentiment   string   `json:"sentiment"`
		Confidence  *float64 `json:"confidence"`
		Explanation string   `json:"explanation"`
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(content)))
	if err := dec.Decode(&parsed); err != nil {
		return nil, &ParseError{Raw: raw, Reason: err.Error()}
	}

	label := models.SentimentLabel(strings.ToLower(strings.TrimSpace(parsed.Sentiment)))
	if !label.Valid() {
		return nil, &ParseError{Raw: raw, Reason: fmt.Sprintf("unknown sentiment %q", parsed.Sentiment)}
	}
	if parsed.Confidence == nil {
		return nil, &ParseError{Raw: raw, Reason: "missing confidence"}
	}
	if c := *parsed.Confidence; c < 0 || c > 1 {
		return nil, &ParseError{Raw: raw, Reason: fmt.Sprintf("confidence %v outside [0, 1]", c)}
	}

	return &models.SentimentRecord{
		Sentiment:   label,
		Confidence:  *parsed.Confidence,
		Explanation: strings.TrimSpace(parsed.Explanation),
	}, nil
}

func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	// Some model responses include extra prose around JSON.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}
