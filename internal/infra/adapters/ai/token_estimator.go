package ai

import (
	"chat-gateway/internal/domain/ports/adapter"

	"github.com/pkoukk/tiktoken-go"
)

// tokenEstimator approximates token usage with tiktoken when the provider's
// response carries no usage block. Best-effort: a nil estimator (encoding
// unavailable) simply leaves counts absent.
type tokenEstimator struct {
	enc *tiktoken.Tiktoken
}

func newTokenEstimator(model string) *tokenEstimator {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
	}
	if err != nil {
		return nil
	}
	return &tokenEstimator{enc: enc}
}

func (e *tokenEstimator) count(text string) (int, bool) {
	if e == nil || e.enc == nil {
		return 0, false
	}
	return len(e.enc.Encode(text, nil, nil)), true
}

func (e *tokenEstimator) countMessages(messages []adapter.Message) (int, bool) {
	if e == nil || e.enc == nil {
		return 0, false
	}
	total := 0
	for _, m := range messages {
		total += len(e.enc.Encode(m.Content, nil, nil))
	}
	return total, true
}
