// Package tokens estimates prompt sizes for request logging. Estimates are
// observability data only; nothing in admission or billing reads them.
package tokens

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"

	"github.com/pysensei/ai-gateway/internal/domain"
)

// perMessageOverhead approximates the per-turn framing tokens upstream APIs
// charge beyond the raw content.
const perMessageOverhead = 4

// Estimator counts tokens with the cl100k encoding. Claude tokenizers are
// not public, so this is an approximation; it tracks real usage closely
// enough for request logs.
type Estimator struct {
	codec tokenizer.Codec
}

// NewEstimator creates an estimator.
func NewEstimator() (*Estimator, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("failed to get tokenizer encoding: %w", err)
	}
	return &Estimator{codec: codec}, nil
}

// CountMessages estimates the prompt tokens of an ordered conversation.
func (e *Estimator) CountMessages(messages []domain.Message) (int, error) {
	total := 0
	for _, m := range messages {
		ids, _, err := e.codec.Encode(m.Content)
		if err != nil {
			return 0, fmt.Errorf("failed to encode message: %w", err)
		}
		total += len(ids) + perMessageOverhead
	}
	return total, nil
}
