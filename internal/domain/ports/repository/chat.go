package repository

import (
	"context"
	"time"

	"chat-gateway/internal/domain/model"
)

// ChatRepository is the durable store for sessions and their messages.
// Implementations map "no such row" (including wrong owner) to
// domain.ErrSessionNotFound without distinguishing the two.
type ChatRepository interface {
	CreateSession(ctx context.Context, s *model.ChatSession) error

	// ListSessionsByUser returns the user's sessions ordered by updated_at
	// descending, page-bounded.
	ListSessionsByUser(ctx context.Context, userID int64, limit, offset int) ([]*model.ChatSession, error)

	// FindOwnedSession loads a session only when owned by userID.
	FindOwnedSession(ctx context.Context, userID int64, sessionID string) (*model.ChatSession, error)

	// ListMessages returns up to limit messages ordered by created_at ascending.
	ListMessages(ctx context.Context, sessionID string, limit int) ([]*model.ChatMessage, error)

	// ListRecentMessages returns the newest limit messages in chronological
	// order (the completion context window).
	ListRecentMessages(ctx context.Context, sessionID string, limit int) ([]*model.ChatMessage, error)

	// AppendMessage inserts one turn and fills m.ID and m.CreatedAt.
	AppendMessage(ctx context.Context, m *model.ChatMessage) error

	// TouchSession bumps updated_at, slides expires_at and rewrites the title.
	TouchSession(ctx context.Context, sessionID, title string, updatedAt, expiresAt time.Time) error

	// DeleteExpired removes every session with expires_at before now.
	// Messages go with their session via the cascade.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
