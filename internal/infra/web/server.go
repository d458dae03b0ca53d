// File: internal/infra/web/server.go
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"chat-gateway/internal/config"
	"chat-gateway/internal/domain/ports/adapter"
	"chat-gateway/internal/infra/ratelimit"
	"chat-gateway/internal/usecase"
)

// Server wires the HTTP surface: the user-facing chat API, the admin
// endpoints, and the Prometheus scrape handler.
type Server struct {
	chatUC        usecase.ChatUseCase
	identity      adapter.IdentityResolver
	limiter       *ratelimit.SlidingWindow
	auth          *AuthManager
	appName       string
	model         string
	adminSecret   string
	ratePerMinute int
	log           *zerolog.Logger
}

func NewServer(
	chatUC usecase.ChatUseCase,
	identity adapter.IdentityResolver,
	limiter *ratelimit.SlidingWindow,
	cfg *config.Config,
	logger *zerolog.Logger,
) *Server {
	webLog := logger.With().Str("component", "Web").Logger()
	return &Server{
		chatUC:        chatUC,
		identity:      identity,
		limiter:       limiter,
		auth:          NewAuthManager(cfg.Admin.Secret, !cfg.Runtime.Dev, cfg.Admin.SessionTTL),
		appName:       cfg.App.Name,
		model:         cfg.AI.Model,
		adminSecret:   cfg.Admin.Secret,
		ratePerMinute: cfg.Chat.RateLimitPerMinute,
		log:           &webLog,
	}
}

// Routes builds the router. All chat endpoints live under /chat-api/v1 and
// require a resolvable identity; admin endpoints use the local JWT instead.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(traceMiddleware(s.log))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/chat-api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Post("/sessions", s.handleCreateSession)
			r.Get("/sessions", s.handleListSessions)
			r.Get("/sessions/{sessionID}/messages", s.handleListMessages)
			r.Post("/chat", s.handleChat)
		})

		r.Post("/admin/login", s.handleAdminLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.adminMiddleware)
			r.Post("/admin/sweep", s.handleAdminSweep)
		})
	})

	return r
}
