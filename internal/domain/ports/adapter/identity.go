package adapter

import (
	"context"

	"chat-gateway/internal/domain/model"
)

// IdentityResolver turns an inbound credential (the raw Cookie header) into a
// verified user identity via the backend's who-am-I endpoint. No retries:
// identity failures gate everything and are surfaced immediately.
type IdentityResolver interface {
	Resolve(ctx context.Context, cookieHeader string) (*model.AuthUser, error)
}
