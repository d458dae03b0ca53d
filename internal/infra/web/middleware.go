// File: internal/infra/web/middleware.go
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chat-gateway/internal/domain"
	"chat-gateway/internal/domain/model"
	"chat-gateway/internal/infra/logging"
	"chat-gateway/internal/infra/metrics"
)

const traceHeader = "X-Trace-Id"

type ctxKey string

const ctxAuthUser ctxKey = "auth_user"

// statusRecorder captures the status code for the access log and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// traceMiddleware assigns every request a trace id (honoring an inbound
// X-Trace-Id), echoes it back, and writes one access log line per request.
func traceMiddleware(log *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(traceHeader)
			if traceID == "" {
				traceID = uuid.NewString()
			}
			ctx := logging.WithTraceID(r.Context(), traceID)
			w.Header().Set(traceHeader, traceID)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r.WithContext(ctx))

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = r.URL.Path
			}
			metrics.IncHTTPRequest(route, rec.status)
			logging.With(ctx, log).Info().
				Str("method", r.Method).
				Str("route", route).
				Int("status", rec.status).
				Dur("latency", time.Since(start)).
				Msg("request")
		})
	}
}

// authMiddleware resolves the caller through the identity service by
// forwarding the raw Cookie header, then stores the user in the context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.identity.Resolve(r.Context(), r.Header.Get("Cookie"))
		if err != nil {
			writeError(w, r, s.log, err)
			return
		}
		ctx := logging.WithUserID(r.Context(), user.ID)
		ctx = context.WithValue(ctx, ctxAuthUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// adminMiddleware gates the operational endpoints behind the admin JWT.
func (s *Server) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			writeError(w, r, s.log, domain.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userFrom(ctx context.Context) *model.AuthUser {
	u, _ := ctx.Value(ctxAuthUser).(*model.AuthUser)
	return u
}
