package limiter

import (
	"context"
	"time"

	types "github.com/desain-gratis/media-console/types/http"
)

var _ Repository = &unlimited{}

// Counters with expiry, keyed by scope and key.
// Implementation needs to be aware of distributed system nature
type Repository interface {
	Get(ctx context.Context, scope, key string) (counter int, remaining time.Duration, err *types.CommonError)
	Increment(ctx context.Context, scope, key string, expiry time.Duration) (err *types.CommonError)
	Reset(ctx context.Context, scope, key string) (err *types.CommonError)
}

type unlimited struct{}

// NewUnlimited never counts anything
func NewUnlimited() *unlimited {
	return &unlimited{}
}

func (u *unlimited) Get(ctx context.Context, scope, key string) (counter int, remaining time.Duration, err *types.CommonError) {
	return 0, 0, nil
}

func (u *unlimited) Increment(ctx context.Context, scope, key string, expiry time.Duration) (err *types.CommonError) {
	return nil
}

func (u *unlimited) Reset(ctx context.Context, scope, key string) (err *types.CommonError) {
	return nil
}
