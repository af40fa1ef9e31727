package password

import (
	"context"

	types "github.com/desain-gratis/media-console/types/http"
)

type Repository interface {
	// Validate the password of an identity (e-mail). ok is false for an unknown
	// identity or a wrong password, the two are not distinguished.
	Validate(ctx context.Context, identity, password string) (userID string, ok bool, errUC *types.CommonError)
}
