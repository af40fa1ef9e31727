package authapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	"github.com/desain-gratis/media-console/delivery/helper"
	types "github.com/desain-gratis/media-console/types/http"
	"github.com/desain-gratis/media-console/usecase/signin"
)

const maximumRequestLength = 1 << 16

type loginService struct {
	signin signin.Usecase
}

func NewLoginService(signin signin.Usecase) *loginService {
	return &loginService{
		signin: signin,
	}
}

func (s *loginService) Register(router *httprouter.Router) {
	router.POST("/auth/login", s.Login)
	router.GET("/auth/me", s.Me)
}

type LoginRequest struct {
	Identity string `json:"identity"`
	Secret   string `json:"secret"`
}

func (s *loginService) Login(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	r.Body = http.MaxBytesReader(w, r.Body, maximumRequestLength)

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helper.SetError(w, types.Error{
			HTTPCode: http.StatusBadRequest,
			Code:     "BAD_REQUEST",
			Message:  "Failed to parse body",
		}, http.StatusBadRequest)
		return
	}

	session, err := s.signin.Login(r.Context(), req.Identity, req.Secret)
	if err != nil {
		body := signinError(err)
		helper.SetError(w, body, body.HTTPCode)
		return
	}

	log.Info().Str("uid", session.Principal.UserID).Time("expires_at", session.ExpiresAt).Msg("signed in")

	writeSuccess(w, session)
}

// Me returns the admin behind the bearer token
func (s *loginService) Me(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	token, errUC := helper.ParseBearerToken(r.Header.Get("Authorization"))
	if errUC != nil {
		helper.SetError(w, *errUC, errUC.HTTPCode)
		return
	}

	principal, err := s.signin.Authenticate(r.Context(), token)
	if err != nil {
		body := signinError(err)
		helper.SetError(w, body, body.HTTPCode)
		return
	}

	writeSuccess(w, principal)
}

func signinError(err error) types.Error {
	switch {
	case errors.Is(err, signin.ErrThrottled):
		return types.Error{HTTPCode: http.StatusTooManyRequests, Code: "TOO_MANY_ATTEMPTS", Message: err.Error()}
	case errors.Is(err, signin.ErrForbidden):
		return types.Error{HTTPCode: http.StatusForbidden, Code: "FORBIDDEN", Message: "Your account is not an admin"}
	case errors.Is(err, signin.ErrAuth):
		return types.Error{HTTPCode: http.StatusUnauthorized, Code: "INVALID_CREDENTIALS", Message: "Invalid e-mail, password, or session"}
	default:
		log.Err(err).Msg("sign in failed")
		return types.Error{HTTPCode: http.StatusServiceUnavailable, Code: "SIGN_IN_UNAVAILABLE", Message: "Sign in is unavailable, try again later"}
	}
}

func writeSuccess(w http.ResponseWriter, success any) {
	payload, err := json.Marshal(&types.CommonResponse{Success: success})
	if err != nil {
		log.Err(err).Msgf("Failed to parse payload")
		helper.SetError(w, types.Error{
			HTTPCode: http.StatusInternalServerError,
			Code:     "SERVER_ERROR",
			Message:  "Failed to parse response",
		}, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}
