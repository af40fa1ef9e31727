package jwthmac

import (
	"time"
)

// Utility to build & sign JWT token using HMAC signing method (with symmetric key).
// The console uses it for admin session tokens. The payload is opaque to the
// token and travels base64 encoded in a single claim.
type Utility interface {
	BuildHMACJWTToken(payload []byte, expireAt time.Time, hmacKeyID string) (token string, err error)
	ParseHMACJWTToken(token string) (payload []byte, err error)
	Store(keyID string, secret string) (err error)
}
