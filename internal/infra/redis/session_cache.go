package redis

import (
	"context"
	"encoding/json"
	"time"

	"chat-gateway/internal/domain/model"
)

// SessionCache keeps recently touched session rows in Redis so owned-session
// lookups on the hot chat path skip the database. Strictly best-effort: every
// caller must tolerate a nil cache and cache errors.
type SessionCache struct {
	client *redClient
	ttl    time.Duration
}

func NewSessionCache(client *redClient, ttl time.Duration) *SessionCache {
	return &SessionCache{
		client: client,
		ttl:    ttl,
	}
}

func key(sessionID string) string { return "chat_session:" + sessionID }

func (c *SessionCache) StoreSession(ctx context.Context, session *model.ChatSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(session.ID), data, c.ttl)
}

func (c *SessionCache) GetSession(ctx context.Context, sessionID string) (*model.ChatSession, error) {
	data, err := c.client.Get(ctx, key(sessionID))
	if err != nil {
		return nil, err
	}

	var session model.ChatSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *SessionCache) DeleteSession(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, key(sessionID))
}
