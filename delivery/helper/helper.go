package helper

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	types "github.com/desain-gratis/media-console/types/http"
)

// ParseBearerToken extracts the token of an "Authorization: Bearer <token>" header
func ParseBearerToken(authorization string) (string, *types.Error) {
	token := strings.Fields(authorization)
	if len(token) < 2 || !strings.EqualFold(token[0], "Bearer") || token[1] == "" {
		return "", &types.Error{
			HTTPCode: http.StatusUnauthorized,
			Code:     "INVALID_OR_EMPTY_AUTHORIZATION",
			Message:  "Authorization header is no valid",
		}
	}

	return token[1], nil
}

func SetError(w http.ResponseWriter, body types.Error, code int) {
	errMessage := types.SerializeError(&types.CommonError{
		Errors: []types.Error{body},
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(errMessage)
}

func CheckRequiredFields(form url.Values, requiredFields []string) *types.Error {
	var missing []string
	for _, key := range requiredFields {
		if strings.TrimSpace(form.Get(key)) == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	return &types.Error{
		HTTPCode: http.StatusBadRequest,
		Message:  fmt.Sprintf("Please fill `%s` field", strings.Join(missing, "`, `")),
		Code:     "EMPTY_REQUIRED_FIELD",
		Fields:   missing,
	}
}
