// File: internal/infra/web/handlers.go
package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"chat-gateway/internal/domain"
	"chat-gateway/internal/domain/model"
	"chat-gateway/internal/infra/logging"
	"chat-gateway/internal/infra/metrics"
)

const (
	defaultSessionLimit = 20
	maxSessionLimit     = 100
	defaultMessageLimit = 100
	maxMessageLimit     = 200
)

type sessionResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type messageResponse struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	TokenIn   *int      `json:"token_in"`
	TokenOut  *int      `json:"token_out"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionCreateRequest struct {
	Title string `json:"title"`
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID          string `json:"session_id"`
	Title              string `json:"title"`
	AssistantMessageID int64  `json:"assistant_message_id"`
	Answer             string `json:"answer"`
	Model              string `json:"model"`
	TokenIn            *int   `json:"token_in"`
	TokenOut           *int   `json:"token_out"`
}

func toSessionResponse(s *model.ChatSession) sessionResponse {
	return sessionResponse{
		ID:        s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "app": s.appName})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	// Empty body is fine (default title); a malformed one is not.
	var req sessionCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, s.log, domain.ErrValidation)
		return
	}

	session, err := s.chatUC.CreateSession(r.Context(), user.ID, req.Title)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	limit := clampQueryInt(r, "limit", defaultSessionLimit, 1, maxSessionLimit)
	offset := clampQueryInt(r, "offset", 0, 0, 1<<30)

	sessions, err := s.chatUC.ListSessions(r.Context(), user.ID, limit, offset)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	out := make([]sessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, toSessionResponse(sess))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	sessionID := chi.URLParam(r, "sessionID")
	limit := clampQueryInt(r, "limit", defaultMessageLimit, 1, maxMessageLimit)

	msgs, err := s.chatUC.ListMessages(r.Context(), user.ID, sessionID, limit)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageResponse{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			TokenIn:   m.TokenIn,
			TokenOut:  m.TokenOut,
			CreatedAt: m.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, s.log, domain.ErrValidation)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, r, s.log, domain.ErrValidation)
		return
	}

	if !s.limiter.Allow(user.ID, s.ratePerMinute, time.Minute) {
		metrics.IncRateLimitBlock()
		writeError(w, r, s.log, domain.ErrRateLimited)
		return
	}

	session, reply, err := s.chatUC.Chat(r.Context(), user.ID, req.SessionID, req.Message)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{
		SessionID:          session.ID,
		Title:              session.Title,
		AssistantMessageID: reply.ID,
		Answer:             reply.Content,
		Model:              s.model,
		TokenIn:            reply.TokenIn,
		TokenOut:           reply.TokenOut,
	})
}

type adminLoginRequest struct {
	Secret string `json:"secret"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, s.log, domain.ErrValidation)
		return
	}
	if s.adminSecret == "" || req.Secret != s.adminSecret {
		writeError(w, r, s.log, domain.ErrUnauthorized)
		return
	}
	token, err := s.auth.Mint(w)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleAdminSweep(w http.ResponseWriter, r *http.Request) {
	n, err := s.chatUC.CleanupExpired(r.Context())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	logging.With(r.Context(), s.log).Info().Int64("count", n).Msg("manual sweep")
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

// clampQueryInt parses an integer query param and clamps it to [min, max].
// Absent or malformed values fall back to def.
func clampQueryInt(r *http.Request, name string, def, min, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
