package hardcode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
)

var (
	ErrInvalidSigningMethod  = errors.New("invalid signing method")
	ErrKeyIdentifierNotFound = errors.New("key identifier not found")
	ErrInvalidToken          = errors.New("invalid token")
	ErrInvalidPayload        = errors.New("invalid payload")
)

const (
	ISS           = "media-console"
	KID_HEADER    = "kid"
	PAYLOAD_CLAIM = "payload"
)

type CustomClaim struct {
	jwt.StandardClaims
	Payload string `json:"payload"`
}

// keys configured at startup, kept in memory
type defaultHandler struct {
	keyLock  *sync.RWMutex
	hmacKeys map[string][]byte
}

func New() *defaultHandler {
	return &defaultHandler{
		keyLock:  &sync.RWMutex{},
		hmacKeys: make(map[string][]byte),
	}
}

func (d *defaultHandler) Store(keyID string, secret string) (err error) {
	if secret == "" {
		return fmt.Errorf("empty secret for key %v", keyID)
	}

	d.keyLock.Lock()
	defer d.keyLock.Unlock()

	d.hmacKeys[keyID] = []byte(secret)

	return nil
}

func (d *defaultHandler) key(keyID string) ([]byte, bool) {
	d.keyLock.RLock()
	defer d.keyLock.RUnlock()

	secret, ok := d.hmacKeys[keyID]
	return secret, ok
}

func (d *defaultHandler) BuildHMACJWTToken(payload []byte, expireAt time.Time, hmacKeyID string) (token string, err error) {
	signingKey, ok := d.key(hmacKeyID)
	if !ok {
		return "", ErrKeyIdentifierNotFound
	}

	_token := jwt.NewWithClaims(jwt.SigningMethodHS512, CustomClaim{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: expireAt.Unix(),
			IssuedAt:  time.Now().Unix(),
			Issuer:    ISS,
		},
		Payload: base64.RawStdEncoding.EncodeToString(payload),
	})
	_token.Header[KID_HEADER] = hmacKeyID

	return _token.SignedString(signingKey)
}

// https://pkg.go.dev/github.com/golang-jwt/jwt#example-Parse-Hmac
func (d *defaultHandler) ParseHMACJWTToken(token string) (payload []byte, err error) {
	parsed, err := jwt.Parse(token, func(parsed *jwt.Token) (interface{}, error) {
		if _, ok := parsed.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSigningMethod
		}

		keyID, ok := parsed.Header[KID_HEADER].(string)
		if !ok {
			return nil, ErrKeyIdentifierNotFound
		}
		secret, ok := d.key(keyID)
		if !ok {
			return nil, ErrKeyIdentifierNotFound
		}

		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if parsed == nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if iss, _ := claims["iss"].(string); iss != ISS {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, iss)
	}

	data, ok := claims[PAYLOAD_CLAIM]
	if !ok {
		return []byte(""), nil // just empty payload
	}

	b, ok := data.(string)
	if !ok {
		return nil, ErrInvalidPayload
	}

	result, err := base64.RawStdEncoding.DecodeString(b)
	if err != nil {
		return nil, ErrInvalidPayload
	}

	return result, nil
}
