package static

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/desain-gratis/media-console/repository/password"
	types "github.com/desain-gratis/media-console/types/http"
)

var _ password.Repository = &hashedPasswordHandler{}

// compared against when the identity is unknown, so both paths cost one bcrypt
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("media-console"), bcrypt.DefaultCost)

type Account struct {
	UserID       string
	Email        string
	PasswordHash string
}

// hashedPasswordHandler validates against bcrypt hashes loaded from configuration
type hashedPasswordHandler struct {
	byEmail map[string]Account
}

func NewHashed(accounts []Account) *hashedPasswordHandler {
	byEmail := make(map[string]Account, len(accounts))
	for _, account := range accounts {
		byEmail[normalize(account.Email)] = account
	}
	return &hashedPasswordHandler{
		byEmail: byEmail,
	}
}

func (h *hashedPasswordHandler) Validate(ctx context.Context, identity, password string) (userID string, ok bool, errUC *types.CommonError) {
	account, found := h.byEmail[normalize(identity)]
	if !found {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return "", false, nil
	}

	if account.PasswordHash == "" {
		return "", false, &types.CommonError{
			Errors: []types.Error{
				{Code: "PASSWORD_NOT_CONFIGURED", HTTPCode: http.StatusBadRequest, Message: "Password is not yet configured"},
			},
		}
	}

	err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password))
	if err != nil {
		return "", false, nil
	}

	return account.UserID, true, nil
}

// Hash a password for the accounts configuration
func Hash(password string) (string, error) {
	encrypted, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(encrypted), nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
