//go:build !integration

package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chat-gateway/internal/config"
	"chat-gateway/internal/domain"
)

func newTestClient(url string) *Client {
	return NewClient(config.BackendConfig{BaseURL: url, Timeout: time.Second})
}

func TestResolve_ForwardsCookieAndMapsIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/me" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Cookie"); got != "JSESSIONID=abc123" {
			t.Errorf("cookie not forwarded verbatim, got %q", got)
		}
		w.Write([]byte(`{"id":42,"userid":"jdoe","auth":"ROLE_USER","name":"J. Doe","email":"j@example.com"}`))
	}))
	defer srv.Close()

	user, err := newTestClient(srv.URL).Resolve(context.Background(), "JSESSIONID=abc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != 42 || user.Login != "jdoe" || user.Role != "ROLE_USER" {
		t.Fatalf("identity not mapped: %+v", user)
	}
}

func TestResolve_MissingCredential(t *testing.T) {
	_, err := newTestClient("http://unused").Resolve(context.Background(), "")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestResolve_ExpiredCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Resolve(context.Background(), "JSESSIONID=stale")
	if !errors.Is(err, domain.ErrCredentialExpired) {
		t.Fatalf("want ErrCredentialExpired, got %v", err)
	}
}

func TestResolve_BackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Resolve(context.Background(), "JSESSIONID=abc")
	if !errors.Is(err, domain.ErrAuthFailed) {
		t.Fatalf("want ErrAuthFailed, got %v", err)
	}
}

func TestResolve_BackendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // immediately: connection refused

	_, err := newTestClient(srv.URL).Resolve(context.Background(), "JSESSIONID=abc")
	if !errors.Is(err, domain.ErrAuthUnavailable) {
		t.Fatalf("want ErrAuthUnavailable, got %v", err)
	}
}
