// File: internal/infra/db/postgres/chat_repo.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"chat-gateway/internal/domain"
	"chat-gateway/internal/domain/model"
	"chat-gateway/internal/domain/ports/repository"
	"chat-gateway/internal/infra/redis"
)

const fkViolation = "23503"

var _ repository.ChatRepository = (*ChatRepo)(nil)

// ChatRepo persists chat sessions and messages. A nil cache disables the
// best-effort Redis layer entirely.
type ChatRepo struct {
	pool  *pgxpool.Pool
	cache *redis.SessionCache
}

func NewChatRepo(pool *pgxpool.Pool, cache *redis.SessionCache) *ChatRepo {
	return &ChatRepo{pool: pool, cache: cache}
}

func (r *ChatRepo) CreateSession(ctx context.Context, s *model.ChatSession) error {
	const q = `
INSERT INTO chat_sessions (id, user_id, title, created_at, updated_at, expires_at)
VALUES ($1,$2,$3,$4,$5,$6);`
	if _, err := r.pool.Exec(ctx, q, s.ID, s.UserID, s.Title, s.CreatedAt, s.UpdatedAt, s.ExpiresAt); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if r.cache != nil {
		_ = r.cache.StoreSession(ctx, s)
	}
	return nil
}

func (r *ChatRepo) ListSessionsByUser(ctx context.Context, userID int64, limit, offset int) ([]*model.ChatSession, error) {
	const q = `
SELECT id, user_id, title, created_at, updated_at, expires_at
  FROM chat_sessions
 WHERE user_id = $1
 ORDER BY updated_at DESC
 LIMIT $2 OFFSET $3;`
	rows, err := r.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := make([]*model.ChatSession, 0, limit)
	for rows.Next() {
		var s model.ChatSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.CreatedAt, &s.UpdatedAt, &s.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *ChatRepo) FindOwnedSession(ctx context.Context, userID int64, sessionID string) (*model.ChatSession, error) {
	// Cache hit still enforces ownership; a foreign session reads as not found.
	if r.cache != nil {
		if s, err := r.cache.GetSession(ctx, sessionID); err == nil {
			if s.UserID != userID {
				return nil, domain.ErrSessionNotFound
			}
			return s, nil
		}
	}

	const q = `
SELECT id, user_id, title, created_at, updated_at, expires_at
  FROM chat_sessions
 WHERE id = $1 AND user_id = $2;`
	var s model.ChatSession
	err := r.pool.QueryRow(ctx, q, sessionID, userID).
		Scan(&s.ID, &s.UserID, &s.Title, &s.CreatedAt, &s.UpdatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	if r.cache != nil {
		_ = r.cache.StoreSession(ctx, &s)
	}
	return &s, nil
}

func (r *ChatRepo) ListMessages(ctx context.Context, sessionID string, limit int) ([]*model.ChatMessage, error) {
	const q = `
SELECT id, session_id, role, content, token_in, token_out, created_at
  FROM chat_messages
 WHERE session_id = $1
 ORDER BY created_at ASC, id ASC
 LIMIT $2;`
	rows, err := r.pool.Query(ctx, q, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

func (r *ChatRepo) ListRecentMessages(ctx context.Context, sessionID string, limit int) ([]*model.ChatMessage, error) {
	// Newest window first, then flipped back to chronological order.
	const q = `
SELECT id, session_id, role, content, token_in, token_out, created_at
  FROM (SELECT id, session_id, role, content, token_in, token_out, created_at
          FROM chat_messages
         WHERE session_id = $1
         ORDER BY created_at DESC, id DESC
         LIMIT $2) recent
 ORDER BY created_at ASC, id ASC;`
	rows, err := r.pool.Query(ctx, q, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

func (r *ChatRepo) AppendMessage(ctx context.Context, m *model.ChatMessage) error {
	const q = `
INSERT INTO chat_messages (session_id, role, content, token_in, token_out, created_at)
VALUES ($1,$2,$3,$4,$5,NOW())
RETURNING id, created_at;`
	err := r.pool.QueryRow(ctx, q, m.SessionID, m.Role, m.Content, m.TokenIn, m.TokenOut).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == fkViolation {
			return domain.ErrSessionNotFound
		}
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (r *ChatRepo) TouchSession(ctx context.Context, sessionID, title string, updatedAt, expiresAt time.Time) error {
	const q = `
UPDATE chat_sessions SET title = $2, updated_at = $3, expires_at = $4 WHERE id = $1;`
	tag, err := r.pool.Exec(ctx, q, sessionID, title, updatedAt, expiresAt)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	// Stale cached copy would keep the old title/expiry; drop it.
	if r.cache != nil {
		_ = r.cache.DeleteSession(ctx, sessionID)
	}
	return nil
}

func (r *ChatRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const q = `DELETE FROM chat_sessions WHERE expires_at < $1 RETURNING id;`
	rows, err := r.pool.Query(ctx, q, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired: %w", err)
	}
	defer rows.Close()

	var deleted int64
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return deleted, fmt.Errorf("scan deleted id: %w", err)
		}
		deleted++
		if r.cache != nil {
			_ = r.cache.DeleteSession(ctx, id)
		}
	}
	return deleted, rows.Err()
}

func scanMessages(rows pgx.Rows) ([]*model.ChatMessage, error) {
	var out []*model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		var tokenIn, tokenOut sql.NullInt32
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &tokenIn, &tokenOut, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if tokenIn.Valid {
			v := int(tokenIn.Int32)
			m.TokenIn = &v
		}
		if tokenOut.Valid {
			v := int(tokenOut.Int32)
			m.TokenOut = &v
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
