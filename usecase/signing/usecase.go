package signing

// the package name should be signing; token related

import (
	"context"
	"time"

	types "github.com/desain-gratis/media-console/types/http"
)

type Usecase interface {
	Publisher
	Verifier
}

// Publisher signs session claims into a token
type Publisher interface {
	// Convert claim to signed JWT token
	Sign(ctx context.Context, claim []byte) (token string, expiry time.Time, errUC *types.CommonError)
}

type Verifier interface {
	// Verify token, returning the claim it carries
	Verify(ctx context.Context, token string) (claim []byte, errUC *types.CommonError)
}
