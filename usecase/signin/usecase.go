package signin

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrAuth the identity and secret do not match
	ErrAuth = errors.New("authentication failed")

	// ErrForbidden the identity is valid but not an admin
	ErrForbidden = errors.New("not an admin")

	// ErrThrottled too many failed attempts for the identity
	ErrThrottled = errors.New("too many attempts")

	// ErrUnavailable a backing store failed
	ErrUnavailable = errors.New("sign in unavailable")
)

type Usecase interface {
	// Login an admin with e-mail and password
	Login(ctx context.Context, identity, secret string) (*Session, error)

	// Authenticate a session token, the principal must still be an admin
	Authenticate(ctx context.Context, token string) (*Principal, error)
}

type Principal struct {
	UserID      string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	LastLogin   time.Time `json:"last_login,omitempty"` // previous sign in, zero on the first
}

type Session struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	Principal *Principal `json:"principal"`
}
