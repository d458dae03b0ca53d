package model

// AuthUser is the identity the backend's /api/auth/me endpoint vouches for.
// It lives for a single request and is never persisted here.
type AuthUser struct {
	ID    int64
	Login string
	Role  string
	Name  string
	Email string
}
