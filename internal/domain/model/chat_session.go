// File: internal/domain/model/chat_session.go
package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultSessionTitle is the sentinel title a session keeps until the first
// user message derives a real one.
const DefaultSessionTitle = "New Chat"

const maxTitleLen = 255

// ChatSession is one conversation thread owned by exactly one user.
// ExpiresAt slides forward on every appended turn; the retention sweeper
// deletes sessions once it has passed.
type ChatSession struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewChatSession builds a session with a normalized title and a fresh
// expiration window.
func NewChatSession(id string, userID int64, title string, now time.Time, retention time.Duration) *ChatSession {
	return &ChatSession{
		ID:        id,
		UserID:    userID,
		Title:     NormalizeTitle(title),
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(retention),
	}
}

// NormalizeTitle trims and bounds a caller-supplied title, falling back to the
// sentinel when nothing usable remains.
func NormalizeTitle(title string) string {
	t := strings.TrimSpace(title)
	if t == "" {
		return DefaultSessionTitle
	}
	return truncateRunes(t, maxTitleLen)
}

// TitleFromMessage derives a session title from the first user message:
// the first 30 characters, trimmed, sentinel if that yields nothing.
func TitleFromMessage(msg string) string {
	msg = truncateRunes(msg, 30)
	if t := strings.TrimSpace(msg); t != "" {
		return t
	}
	return DefaultSessionTitle
}

// truncateRunes caps s at max characters. Counting runes, not bytes, keeps a
// cut inside multibyte text from producing invalid UTF-8.
func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// HasDefaultTitle reports whether the title is still the creation sentinel.
func (s *ChatSession) HasDefaultTitle() bool { return s.Title == DefaultSessionTitle }

// ChatMessage is one immutable turn in a conversation. Token counts are nil
// when the provider reported no usage and estimation was unavailable.
type ChatMessage struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	TokenIn   *int      `json:"token_in,omitempty"`
	TokenOut  *int      `json:"token_out,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
