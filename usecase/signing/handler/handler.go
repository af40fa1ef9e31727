package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	types "github.com/desain-gratis/media-console/types/http"
	"github.com/desain-gratis/media-console/usecase/signing"
	jwthmac "github.com/desain-gratis/media-console/utility/secret/hmac"
)

var _ signing.Usecase = &hmacSigning{}

// hmacSigning issues session tokens signed with a shared secret.
// The console is the only verifier so no public keys are published.
type hmacSigning struct {
	utility jwthmac.Utility
	keyID   string
	ttl     time.Duration
	now     func() time.Time
}

func NewHMAC(utility jwthmac.Utility, keyID string, ttl time.Duration) *hmacSigning {
	return &hmacSigning{
		utility: utility,
		keyID:   keyID,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (h *hmacSigning) Sign(ctx context.Context, claim []byte) (token string, expiry time.Time, errUC *types.CommonError) {
	expiry = h.now().Add(h.ttl)

	token, err := h.utility.BuildHMACJWTToken(claim, expiry, h.keyID)
	if err != nil {
		log.Err(err).Msgf("failed to sign token with key %v", h.keyID)
		return "", time.Time{}, &types.CommonError{
			Errors: []types.Error{
				{Code: "FAILED_TO_SIGN", HTTPCode: http.StatusInternalServerError, Message: "Failed to sign token"},
			},
		}
	}

	return token, expiry, nil
}

func (h *hmacSigning) Verify(ctx context.Context, token string) (claim []byte, errUC *types.CommonError) {
	claim, err := h.utility.ParseHMACJWTToken(token)
	if err != nil {
		return nil, &types.CommonError{
			Errors: []types.Error{
				{Code: "INVALID_TOKEN", HTTPCode: http.StatusUnauthorized, Message: "Invalid or expired token"},
			},
		}
	}
	return claim, nil
}
