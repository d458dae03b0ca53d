// File: internal/infra/adapters/identity/client.go
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"chat-gateway/internal/config"
	"chat-gateway/internal/domain"
	"chat-gateway/internal/domain/model"
	"chat-gateway/internal/domain/ports/adapter"
)

var _ adapter.IdentityResolver = (*Client)(nil)

// Client delegates authentication to the backend's /api/auth/me endpoint by
// forwarding the inbound Cookie header verbatim. No retries: these failures
// gate the whole request and are surfaced immediately.
type Client struct {
	base   string
	client *http.Client
}

func NewClient(cfg config.BackendConfig) *Client {
	return &Client{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type whoAmIResponse struct {
	ID    int64  `json:"id"`
	Login string `json:"userid"`
	Role  string `json:"auth"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (c *Client) Resolve(ctx context.Context, cookieHeader string) (*model.AuthUser, error) {
	if cookieHeader == "" {
		return nil, domain.ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/auth/me", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthUnavailable, err)
	}
	req.Header.Set("Cookie", cookieHeader)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, domain.ErrCredentialExpired
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: backend status %d", domain.ErrAuthFailed, resp.StatusCode)
	}

	var payload whoAmIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", domain.ErrAuthFailed, err)
	}
	return &model.AuthUser{
		ID:    payload.ID,
		Login: payload.Login,
		Role:  payload.Role,
		Name:  payload.Name,
		Email: payload.Email,
	}, nil
}
