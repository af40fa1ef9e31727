package mycontentapi

import (
	"context"

	"github.com/desain-gratis/media-console/usecase/signin"
)

var _ Authorization = &emptyAuthorization{}

// emptyAuthorization accepts any token, for local development only
type emptyAuthorization struct{}

func EmptyAuthorization() *emptyAuthorization {
	return &emptyAuthorization{}
}

func (e *emptyAuthorization) Authenticate(ctx context.Context, token string) (*signin.Principal, error) {
	return &signin.Principal{
		UserID:      "dev",
		DisplayName: "Developer",
	}, nil
}
