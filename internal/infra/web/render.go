// File: internal/infra/web/render.go
package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"chat-gateway/internal/domain"
	"chat-gateway/internal/infra/logging"
)

// errorEnvelope is the uniform error body. trace_id lets operators correlate
// a user report with the request log line.
type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError renders business errors with their own status and code; anything
// else is logged and masked as a 500.
func writeError(w http.ResponseWriter, r *http.Request, log *zerolog.Logger, err error) {
	traceID := logging.TraceID(r.Context())

	var de *domain.Error
	if errors.As(err, &de) {
		writeJSON(w, de.Status, errorEnvelope{Code: de.Code, Message: de.Message, TraceID: traceID})
		return
	}

	logging.With(r.Context(), log).Error().Err(err).Msg("unhandled error")
	writeJSON(w, http.StatusInternalServerError, errorEnvelope{
		Code:    "INTERNAL_ERROR",
		Message: "Internal server error.",
		TraceID: traceID,
	})
}
