package adapter

import "context"

// Message is one role-tagged turn sent to the completion provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion is a successful provider response. Token counts are nil when the
// provider reported no usage.
type Completion struct {
	Text      string
	TokensIn  *int
	TokensOut *int
}

// CompletionAdapter calls the external completion provider. Implementations
// own the retry/backoff policy and surface classified domain errors.
type CompletionAdapter interface {
	Complete(ctx context.Context, messages []Message) (*Completion, error)
}
