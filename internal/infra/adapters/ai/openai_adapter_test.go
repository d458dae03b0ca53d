//go:build !integration

package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"chat-gateway/internal/config"
	"chat-gateway/internal/domain"
	"chat-gateway/internal/domain/ports/adapter"
)

func newTestAdapter(baseURL string, maxRetries int) *OpenAIAdapter {
	return &OpenAIAdapter{
		apiKey:     "test-key",
		base:       baseURL,
		model:      "gpt-test",
		client:     &http.Client{Timeout: time.Second},
		maxRetries: maxRetries,
		backoff:    time.Millisecond,
	}
}

func userMsg(content string) []adapter.Message {
	return []adapter.Message{
		{Role: "system", Content: "be helpful"},
		{Role: "user", Content: content},
	}
}

func TestComplete_FlatShapeWithUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing auth header, got %q", got)
		}
		w.Write([]byte(`{"output_text":"  hello  ","usage":{"input_tokens":12,"output_tokens":3}}`))
	}))
	defer srv.Close()

	comp, err := newTestAdapter(srv.URL, 2).Complete(context.Background(), userMsg("hi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comp.Text != "hello" {
		t.Fatalf("want trimmed text, got %q", comp.Text)
	}
	if comp.TokensIn == nil || *comp.TokensIn != 12 || comp.TokensOut == nil || *comp.TokensOut != 3 {
		t.Fatalf("usage not mapped: %+v", comp)
	}
}

func TestComplete_NestedShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"output":[
			{"content":[{"text":"first"},{"text":"  "}]},
			{"content":[{"text":"second"}]}
		]}`))
	}))
	defer srv.Close()

	comp, err := newTestAdapter(srv.URL, 0).Complete(context.Background(), userMsg("hi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comp.Text != "first\nsecond" {
		t.Fatalf("want newline-joined blocks, got %q", comp.Text)
	}
	if comp.TokensIn != nil || comp.TokensOut != nil {
		t.Fatalf("no usage and no estimator: counts should stay nil, got %+v", comp)
	}
}

func TestComplete_RetriesServerErrorsThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"output_text":"third time lucky"}`))
	}))
	defer srv.Close()

	comp, err := newTestAdapter(srv.URL, 2).Complete(context.Background(), userMsg("hi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comp.Text != "third time lucky" {
		t.Fatalf("got %q", comp.Text)
	}
	if calls != 3 {
		t.Fatalf("want exactly 3 attempts, got %d", calls)
	}
}

func TestComplete_ExhaustedRetriesSurfaceGenericFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestAdapter(srv.URL, 2).Complete(context.Background(), userMsg("hi"))
	if !errors.Is(err, domain.ErrCompletionFailed) {
		t.Fatalf("want ErrCompletionFailed, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("want 3 attempts, got %d", calls)
	}
}

func TestComplete_ExhaustedRateLimitKeepsItsClass(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestAdapter(srv.URL, 1).Complete(context.Background(), userMsg("hi"))
	if !errors.Is(err, domain.ErrCompletionRateLimited) {
		t.Fatalf("want ErrCompletionRateLimited, got %v", err)
	}
}

func TestComplete_ClientErrorIsTerminal(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestAdapter(srv.URL, 3).Complete(context.Background(), userMsg("hi"))
	if !errors.Is(err, domain.ErrCompletionFailed) {
		t.Fatalf("want ErrCompletionFailed, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("4xx must not be retried, got %d attempts", calls)
	}
}

func TestComplete_EmptyTextFailsWithoutRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"output_text":"   "}`))
	}))
	defer srv.Close()

	_, err := newTestAdapter(srv.URL, 3).Complete(context.Background(), userMsg("hi"))
	if !errors.Is(err, domain.ErrCompletionEmpty) {
		t.Fatalf("want ErrCompletionEmpty, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("empty response must fail immediately, got %d attempts", calls)
	}
}

func TestNewOpenAIAdapter_MissingKey(t *testing.T) {
	_, err := NewOpenAIAdapter(config.AIConfig{Model: "gpt-test"})
	if !errors.Is(err, domain.ErrMissingAPIKey) {
		t.Fatalf("want ErrMissingAPIKey, got %v", err)
	}
}
