// File: internal/infra/adapters/ai/openai_adapter.go
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"chat-gateway/internal/config"
	"chat-gateway/internal/domain"
	"chat-gateway/internal/domain/ports/adapter"
	"chat-gateway/internal/infra/metrics"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.CompletionAdapter = (*OpenAIAdapter)(nil)

// OpenAIAdapter calls the OpenAI Responses API with bounded retries.
// Retryable failures: timeouts, 429s and 5xx/absent-status errors. Everything
// else is terminal, including an empty completion text.
type OpenAIAdapter struct {
	apiKey     string
	base       string // e.g., https://api.openai.com/v1
	model      string
	client     *http.Client
	maxRetries int           // attempts = maxRetries + 1
	backoff    time.Duration // linear: backoff * attempt index
	estimator  *tokenEstimator
}

func NewOpenAIAdapter(cfg config.AIConfig) (*OpenAIAdapter, error) {
	if cfg.OpenAIKey == "" {
		return nil, domain.ErrMissingAPIKey
	}
	return &OpenAIAdapter{
		apiKey:     cfg.OpenAIKey,
		base:       "https://api.openai.com/v1",
		model:      cfg.Model,
		client:     &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		backoff:    500 * time.Millisecond,
		estimator:  newTokenEstimator(cfg.Model),
	}, nil
}

type responsesRequest struct {
	Model string            `json:"model"`
	Input []adapter.Message `json:"input"`
}

type responsesPayload struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// failure classifies one failed attempt.
type failure struct {
	err         error
	retryable   bool
	rateLimited bool
	reason      string // timeout | rate_limited | server_error
}

func (o *OpenAIAdapter) Complete(ctx context.Context, messages []adapter.Message) (*adapter.Completion, error) {
	start := time.Now()
	attempts := o.maxRetries + 1
	var last failure

	for idx := 1; idx <= attempts; idx++ {
		comp, fail := o.attempt(ctx, messages)
		if fail == nil {
			metrics.ObserveCompletionLatency(o.model, float64(time.Since(start).Milliseconds()), true)
			o.fillTokens(messages, comp)
			return comp, nil
		}
		// An empty completion is terminal on the attempt that produced it.
		if fail.err == domain.ErrCompletionEmpty {
			metrics.ObserveCompletionLatency(o.model, float64(time.Since(start).Milliseconds()), false)
			return nil, fail.err
		}

		last = *fail
		if !fail.retryable || idx == attempts {
			break
		}
		metrics.IncCompletionRetry(fail.reason)
		if err := sleep(ctx, o.backoff*time.Duration(idx)); err != nil {
			break
		}
	}

	metrics.ObserveCompletionLatency(o.model, float64(time.Since(start).Milliseconds()), false)
	if last.rateLimited {
		return nil, fmt.Errorf("%w: %v", domain.ErrCompletionRateLimited, last.err)
	}
	return nil, fmt.Errorf("%w: %v", domain.ErrCompletionFailed, last.err)
}

func (o *OpenAIAdapter) attempt(ctx context.Context, messages []adapter.Message) (*adapter.Completion, *failure) {
	b, _ := json.Marshal(responsesRequest{Model: o.model, Input: messages})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.base+"/responses", bytes.NewReader(b))
	if err != nil {
		return nil, &failure{err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		// Transport failure carries no status: retryable per policy. Timeouts
		// are reported separately for observability.
		reason := "server_error"
		if isTimeout(err) {
			reason = "timeout"
		}
		return nil, &failure{err: err, retryable: true, reason: reason}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &failure{
			err:         fmt.Errorf("openai http %d", resp.StatusCode),
			retryable:   true,
			rateLimited: true,
			reason:      "rate_limited",
		}
	case resp.StatusCode >= 500:
		return nil, &failure{
			err:       fmt.Errorf("openai http %d", resp.StatusCode),
			retryable: true,
			reason:    "server_error",
		}
	case resp.StatusCode >= 300:
		return nil, &failure{err: fmt.Errorf("openai http %d", resp.StatusCode)}
	}

	var payload responsesPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &failure{err: fmt.Errorf("decode response: %w", err)}
	}

	text := extractText(&payload)
	if text == "" {
		return nil, &failure{err: domain.ErrCompletionEmpty}
	}

	comp := &adapter.Completion{Text: text}
	if payload.Usage != nil {
		in, out := payload.Usage.InputTokens, payload.Usage.OutputTokens
		comp.TokensIn = &in
		comp.TokensOut = &out
	}
	return comp, nil
}

// extractText tolerates both Responses API shapes: the flat output_text field
// and the nested output[].content[].text blocks.
func extractText(p *responsesPayload) string {
	if t := strings.TrimSpace(p.OutputText); t != "" {
		return t
	}
	var parts []string
	for _, item := range p.Output {
		for _, content := range item.Content {
			if t := strings.TrimSpace(content.Text); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// fillTokens estimates usage locally when the provider omitted it, and records
// whatever counts we ended up with.
func (o *OpenAIAdapter) fillTokens(messages []adapter.Message, comp *adapter.Completion) {
	if comp.TokensIn == nil && o.estimator != nil {
		if n, ok := o.estimator.countMessages(messages); ok {
			comp.TokensIn = &n
		}
	}
	if comp.TokensOut == nil && o.estimator != nil {
		if n, ok := o.estimator.count(comp.Text); ok {
			comp.TokensOut = &n
		}
	}
	in, out := 0, 0
	if comp.TokensIn != nil {
		in = *comp.TokensIn
	}
	if comp.TokensOut != nil {
		out = *comp.TokensOut
	}
	metrics.AddCompletionTokens(o.model, in, out)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	if errors.As(err, &t) && t.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
