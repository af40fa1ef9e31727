package mycontentapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	"github.com/desain-gratis/media-console/delivery/helper"
	types "github.com/desain-gratis/media-console/types/http"
	"github.com/desain-gratis/media-console/usecase/signin"
)

// Authorization resolves a session token to an admin principal
type Authorization interface {
	Authenticate(ctx context.Context, token string) (*signin.Principal, error)
}

type principalKey struct{}

// PrincipalFrom returns the admin that made the request, if any
func PrincipalFrom(ctx context.Context) (*signin.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*signin.Principal)
	return p, ok
}

// WithAuthorization only lets requests with a valid admin bearer token through
func WithAuthorization(auth Authorization, handle httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		token, errUC := helper.ParseBearerToken(r.Header.Get("Authorization"))
		if errUC != nil {
			helper.SetError(w, *errUC, http.StatusUnauthorized)
			return
		}

		principal, err := auth.Authenticate(r.Context(), token)
		if err != nil {
			status, body := authorizationError(err)
			helper.SetError(w, body, status)
			return
		}

		log.Debug().Str("uid", principal.UserID).Str("method", r.Method).Str("path", r.URL.Path).Msg("authorized")

		ctx := context.WithValue(r.Context(), principalKey{}, principal)
		handle(w, r.WithContext(ctx), p)
	}
}

func authorizationError(err error) (int, types.Error) {
	switch {
	case errors.Is(err, signin.ErrForbidden):
		return http.StatusForbidden, types.Error{HTTPCode: http.StatusForbidden, Code: "FORBIDDEN", Message: "Your account is not an admin"}
	case errors.Is(err, signin.ErrAuth):
		return http.StatusUnauthorized, types.Error{HTTPCode: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "Invalid or expired session"}
	default:
		log.Err(err).Msg("failed to authenticate")
		return http.StatusServiceUnavailable, types.Error{HTTPCode: http.StatusServiceUnavailable, Code: "AUTH_UNAVAILABLE", Message: "Cannot verify session right now"}
	}
}
