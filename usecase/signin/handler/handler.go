package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/desain-gratis/media-console/repository/lastlogin"
	"github.com/desain-gratis/media-console/repository/limiter"
	"github.com/desain-gratis/media-console/repository/password"
	"github.com/desain-gratis/media-console/usecase/signin"
	"github.com/desain-gratis/media-console/usecase/signing"
)

var _ signin.Usecase = &handler{}

const limiterScope = "login"

type Config struct {
	// Admins is the allow-list of user IDs that may use the console
	Admins []string

	// MaxAttempts failed logins per identity before it is locked out
	MaxAttempts int

	// Lockout window, counted from the first failed attempt
	Lockout time.Duration
}

type handler struct {
	cfg       Config
	admins    map[string]struct{}
	passwords password.Repository
	limiter   limiter.Repository
	lastLogin lastlogin.Repository
	signing   signing.Usecase
	now       func() time.Time
}

func New(
	cfg Config,
	passwords password.Repository,
	limiterRepo limiter.Repository,
	lastLogin lastlogin.Repository,
	signingUC signing.Usecase,
) *handler {
	admins := make(map[string]struct{}, len(cfg.Admins))
	for _, uid := range cfg.Admins {
		admins[uid] = struct{}{}
	}
	return &handler{
		cfg:       cfg,
		admins:    admins,
		passwords: passwords,
		limiter:   limiterRepo,
		lastLogin: lastLogin,
		signing:   signingUC,
		now:       time.Now,
	}
}

// claim carried by the session token
type claim struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
}

func (h *handler) Login(ctx context.Context, identity, secret string) (*signin.Session, error) {
	identity = strings.ToLower(strings.TrimSpace(identity))
	if identity == "" || secret == "" {
		return nil, fmt.Errorf("%w: identity and secret are required", signin.ErrAuth)
	}

	if h.cfg.MaxAttempts > 0 {
		attempts, remaining, errUC := h.limiter.Get(ctx, limiterScope, identity)
		if errUC != nil {
			return nil, fmt.Errorf("%w: %v", signin.ErrUnavailable, errUC.Err())
		}
		if attempts >= h.cfg.MaxAttempts {
			return nil, fmt.Errorf("%w: try again in %v", signin.ErrThrottled, remaining.Round(time.Second))
		}
	}

	userID, ok, errUC := h.passwords.Validate(ctx, identity, secret)
	if errUC != nil {
		return nil, fmt.Errorf("%w: %v", signin.ErrAuth, errUC.Err())
	}
	if !ok {
		h.countFailure(ctx, identity)
		return nil, fmt.Errorf("%w: invalid e-mail or password", signin.ErrAuth)
	}

	if !h.isAdmin(userID) {
		log.Warn().Str("uid", userID).Msg("sign in by non admin account")
		return nil, fmt.Errorf("%w: %v", signin.ErrForbidden, identity)
	}

	if errUC := h.limiter.Reset(ctx, limiterScope, identity); errUC != nil {
		log.Warn().Msgf("failed to reset login limiter: %v", errUC.Err())
	}

	previous, errUC := h.lastLogin.Get(ctx, userID)
	if errUC != nil {
		log.Warn().Msgf("failed to get last login of %v: %v", userID, errUC.Err())
	}
	if errUC := h.lastLogin.Set(ctx, userID, h.now()); errUC != nil {
		log.Warn().Msgf("failed to record last login of %v: %v", userID, errUC.Err())
	}

	payload, err := json.Marshal(claim{UserID: userID, Email: identity})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", signin.ErrUnavailable, err)
	}

	token, expiry, errUC := h.signing.Sign(ctx, payload)
	if errUC != nil {
		return nil, fmt.Errorf("%w: %v", signin.ErrUnavailable, errUC.Err())
	}

	log.Info().Str("uid", userID).Msg("admin signed in")

	return &signin.Session{
		Token:     token,
		ExpiresAt: expiry,
		Principal: &signin.Principal{
			UserID:      userID,
			Email:       identity,
			DisplayName: DisplayName(identity),
			LastLogin:   previous,
		},
	}, nil
}

func (h *handler) Authenticate(ctx context.Context, token string) (*signin.Principal, error) {
	payload, errUC := h.signing.Verify(ctx, token)
	if errUC != nil {
		return nil, fmt.Errorf("%w: %v", signin.ErrAuth, errUC.Err())
	}

	var c claim
	if err := json.Unmarshal(payload, &c); err != nil || c.UserID == "" {
		return nil, fmt.Errorf("%w: malformed token claim", signin.ErrAuth)
	}

	// revoked when removed from the allow-list
	if !h.isAdmin(c.UserID) {
		return nil, fmt.Errorf("%w: %v", signin.ErrForbidden, c.Email)
	}

	return &signin.Principal{
		UserID:      c.UserID,
		Email:       c.Email,
		DisplayName: DisplayName(c.Email),
	}, nil
}

func (h *handler) isAdmin(userID string) bool {
	_, ok := h.admins[userID]
	return ok
}

func (h *handler) countFailure(ctx context.Context, identity string) {
	if h.cfg.MaxAttempts <= 0 {
		return
	}
	if errUC := h.limiter.Increment(ctx, limiterScope, identity, h.cfg.Lockout); errUC != nil {
		log.Warn().Msgf("failed to count login attempt: %v", errUC.Err())
	}
}

// DisplayName is the e-mail local part with its first letter in upper case
func DisplayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return "Admin"
	}
	r, size := utf8.DecodeRuneInString(local)
	return string(unicode.ToUpper(r)) + local[size:]
}
