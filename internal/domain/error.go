package domain

import "fmt"

// Error is a business-rule failure carrying the HTTP status and machine code
// the web layer renders. Unknown errors are rendered as INTERNAL_ERROR instead.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches wrapped errors by code, so errors.Is works across fmt.Errorf("%w") chains.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	// Common domain errors
	ErrUnauthorized          = &Error{Status: 401, Code: "UNAUTHORIZED", Message: "Authentication required."}
	ErrCredentialExpired     = &Error{Status: 401, Code: "UNAUTHORIZED", Message: "Session expired."}
	ErrAuthUnavailable       = &Error{Status: 503, Code: "AUTH_SERVICE_UNAVAILABLE", Message: "Auth service unavailable."}
	ErrAuthFailed            = &Error{Status: 503, Code: "AUTH_SERVICE_ERROR", Message: "Auth validation failed."}
	ErrRateLimited           = &Error{Status: 429, Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded."}
	ErrSessionNotFound       = &Error{Status: 404, Code: "SESSION_NOT_FOUND", Message: "Chat session not found."}
	ErrCompletionRateLimited = &Error{Status: 429, Code: "OPENAI_RATE_LIMITED", Message: "Rate limited by OpenAI. Try again later."}
	ErrCompletionFailed      = &Error{Status: 502, Code: "OPENAI_ERROR", Message: "Failed to generate assistant response."}
	ErrCompletionEmpty       = &Error{Status: 502, Code: "OPENAI_EMPTY_RESPONSE", Message: "Model returned an empty response."}
	ErrMissingAPIKey         = &Error{Status: 500, Code: "MISSING_OPENAI_KEY", Message: "OPENAI_API_KEY is not configured."}
	ErrValidation            = &Error{Status: 400, Code: "VALIDATION_ERROR", Message: "Invalid request payload."}
)

// MessageTooLong reports a chat message exceeding the configured limit.
func MessageTooLong(max int) *Error {
	return &Error{
		Status:  400,
		Code:    "MESSAGE_TOO_LONG",
		Message: fmt.Sprintf("Message exceeds max length (%d).", max),
	}
}

// ErrMessageTooLong is the comparison target for errors.Is; MessageTooLong
// instances match it by code.
var ErrMessageTooLong = &Error{Status: 400, Code: "MESSAGE_TOO_LONG", Message: "Message exceeds max length."}
