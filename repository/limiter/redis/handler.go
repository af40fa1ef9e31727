package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/desain-gratis/media-console/repository/limiter"
	types "github.com/desain-gratis/media-console/types/http"
)

var (
	_ limiter.Repository = &defaultHandler{}
)

type defaultHandler struct {
	client *redis.Client
	prefix string
}

func New(client *redis.Client, prefix string) *defaultHandler {
	return &defaultHandler{
		client: client,
		prefix: prefix,
	}
}

func (d *defaultHandler) combinedKey(scope, key string) string {
	return d.prefix + scope + "|" + key
}

func (d *defaultHandler) Get(ctx context.Context, scope, key string) (counter int, remaining time.Duration, err *types.CommonError) {
	combinedKey := d.combinedKey(scope, key)

	str := d.client.Get(ctx, combinedKey)
	if str.Err() != nil {
		if str.Err() == redis.Nil {
			return 0, 0, nil
		}
		return 0, 0, &types.CommonError{
			Errors: []types.Error{
				{
					Message: str.Err().Error(),
					Code:    "FAILED_TO_GET_LIMITER",
				},
			},
		}
	}

	counter, _err := str.Int()
	if _err != nil {
		return 0, 0, &types.CommonError{
			Errors: []types.Error{
				{
					Message: _err.Error(),
					Code:    "FAILED_TO_CONVERT_TO_INTEGER",
				},
			},
		}
	}

	strTTL := d.client.TTL(ctx, combinedKey)
	if strTTL.Err() != nil {
		return 0, 0, &types.CommonError{
			Errors: []types.Error{
				{
					Message: strTTL.Err().Error(),
					Code:    "FAILED_TO_GET_LIMITER",
				},
			},
		}
	}

	return counter, strTTL.Val(), nil
}

// Increment the counter, the expiry is set by the first increment only so the
// window does not slide.
func (d *defaultHandler) Increment(ctx context.Context, scope, key string, expiry time.Duration) (err *types.CommonError) {
	combinedKey := d.combinedKey(scope, key)

	res := d.client.Incr(ctx, combinedKey)
	if res.Err() != nil {
		return &types.CommonError{
			Errors: []types.Error{
				{
					Code:    "FAILED_TO_INCREMENT",
					Message: res.Err().Error(),
				},
			},
		}
	}

	if res.Val() == 1 {
		exp := d.client.Expire(ctx, combinedKey, expiry)
		if exp.Err() != nil {
			return &types.CommonError{
				Errors: []types.Error{
					{
						Code:    "FAILED_TO_EXPIRE",
						Message: exp.Err().Error(),
					},
				},
			}
		}
	}

	return nil
}

func (d *defaultHandler) Reset(ctx context.Context, scope, key string) (err *types.CommonError) {
	res := d.client.Del(ctx, d.combinedKey(scope, key))
	if res.Err() != nil {
		return &types.CommonError{
			Errors: []types.Error{
				{
					Code:    "FAILED_TO_RESET",
					Message: res.Err().Error(),
				},
			},
		}
	}
	return nil
}
