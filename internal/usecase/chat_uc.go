// File: internal/usecase/chat_uc.go
package usecase

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"chat-gateway/internal/config"
	"chat-gateway/internal/domain"
	"chat-gateway/internal/domain/model"
	"chat-gateway/internal/domain/ports/adapter"
	"chat-gateway/internal/domain/ports/repository"
	"chat-gateway/internal/infra/logging"
)

// systemPrompt is the fixed instruction prepended to every completion call.
const systemPrompt = "You are a chatbot assistant for a scheduling and memo app. " +
	"Prefer concise and accurate responses, and avoid unsupported claims."

// Compile-time check
var _ ChatUseCase = (*chatUC)(nil)

type ChatUseCase interface {
	CreateSession(ctx context.Context, userID int64, title string) (*model.ChatSession, error)
	ListSessions(ctx context.Context, userID int64, limit, offset int) ([]*model.ChatSession, error)
	ListMessages(ctx context.Context, userID int64, sessionID string, limit int) ([]*model.ChatMessage, error)
	Chat(ctx context.Context, userID int64, sessionID, message string) (*model.ChatSession, *model.ChatMessage, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

type chatUC struct {
	repo      repository.ChatRepository
	ai        adapter.CompletionAdapter
	retention time.Duration
	maxLen    int
	history   int
	log       *zerolog.Logger
	now       func() time.Time
}

func NewChatUseCase(repo repository.ChatRepository, ai adapter.CompletionAdapter, cfg config.ChatConfig, logger *zerolog.Logger) *chatUC {
	ucLog := logger.With().Str("component", "ChatUC").Logger()
	return &chatUC{
		repo:      repo,
		ai:        ai,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		maxLen:    cfg.MaxMessageLength,
		history:   cfg.MaxHistoryMessages,
		log:       &ucLog,
		now:       time.Now,
	}
}

func (c *chatUC) CreateSession(ctx context.Context, userID int64, title string) (*model.ChatSession, error) {
	now := c.now().UTC()
	s := model.NewChatSession(ulid.Make().String(), userID, title, now, c.retention)
	if err := c.repo.CreateSession(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *chatUC) ListSessions(ctx context.Context, userID int64, limit, offset int) ([]*model.ChatSession, error) {
	return c.repo.ListSessionsByUser(ctx, userID, limit, offset)
}

func (c *chatUC) ListMessages(ctx context.Context, userID int64, sessionID string, limit int) ([]*model.ChatMessage, error) {
	// Ownership gate first; foreign sessions read as not found.
	s, err := c.repo.FindOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return c.repo.ListMessages(ctx, s.ID, limit)
}

// Chat runs the send-message state machine: validate, resolve session, persist
// the user turn, call the provider over the recent window, persist the reply,
// refresh the session. The user turn stays durable even when the provider
// call fails.
func (c *chatUC) Chat(ctx context.Context, userID int64, sessionID, message string) (*model.ChatSession, *model.ChatMessage, error) {
	// Length gate before any store or network work.
	if utf8.RuneCountInString(message) > c.maxLen {
		return nil, nil, domain.MessageTooLong(c.maxLen)
	}

	s, err := c.resolveSession(ctx, userID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	log := logging.With(ctx, c.log).With().Str("session_id", s.ID).Logger()

	userMsg := &model.ChatMessage{SessionID: s.ID, Role: model.RoleUser, Content: message}
	if err := c.repo.AppendMessage(ctx, userMsg); err != nil {
		return nil, nil, err
	}

	// Sliding context window: the newest turns including the one just stored.
	recent, err := c.repo.ListRecentMessages(ctx, s.ID, c.history)
	if err != nil {
		return nil, nil, err
	}
	input := make([]adapter.Message, 0, len(recent)+1)
	input = append(input, adapter.Message{Role: model.RoleSystem, Content: systemPrompt})
	for _, m := range recent {
		input = append(input, adapter.Message{Role: m.Role, Content: m.Content})
	}

	comp, err := c.ai.Complete(ctx, input)
	if err != nil {
		log.Warn().Err(err).Msg("completion failed; user turn kept")
		return nil, nil, err
	}

	reply := &model.ChatMessage{
		SessionID: s.ID,
		Role:      model.RoleAssistant,
		Content:   comp.Text,
		TokenIn:   comp.TokensIn,
		TokenOut:  comp.TokensOut,
	}
	if err := c.repo.AppendMessage(ctx, reply); err != nil {
		return nil, nil, err
	}

	now := c.now().UTC()
	title := s.Title
	if s.HasDefaultTitle() {
		title = model.TitleFromMessage(message)
	}
	if err := c.repo.TouchSession(ctx, s.ID, title, now, now.Add(c.retention)); err != nil {
		return nil, nil, err
	}
	s.Title = title
	s.UpdatedAt = now
	s.ExpiresAt = now.Add(c.retention)

	log.Info().
		Int64("assistant_message_id", reply.ID).
		Msg("chat completed")
	return s, reply, nil
}

func (c *chatUC) resolveSession(ctx context.Context, userID int64, sessionID string) (*model.ChatSession, error) {
	if sessionID != "" {
		return c.repo.FindOwnedSession(ctx, userID, sessionID)
	}
	return c.CreateSession(ctx, userID, "")
}

func (c *chatUC) CleanupExpired(ctx context.Context) (int64, error) {
	return c.repo.DeleteExpired(ctx, c.now().UTC())
}
