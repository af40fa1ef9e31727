package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/desain-gratis/media-console/repository/lastlogin"
	types "github.com/desain-gratis/media-console/types/http"
)

var _ lastlogin.Repository = &defaultHandler{}

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

func (d *defaultHandler) key(userID string) string {
	return d.prefix + "last_login|" + userID
}

func (d *defaultHandler) Get(ctx context.Context, userID string) (time.Time, *types.CommonError) {
	str := d.client.Get(ctx, d.key(userID))
	if str.Err() == redis.Nil {
		return time.Time{}, nil
	}
	if str.Err() != nil {
		return time.Time{}, &types.CommonError{
			Errors: []types.Error{
				{Code: "FAILED_TO_GET_LAST_LOGIN", Message: str.Err().Error()},
			},
		}
	}

	at, err := time.Parse(time.RFC3339Nano, str.Val())
	if err != nil {
		return time.Time{}, &types.CommonError{
			Errors: []types.Error{
				{Code: "INVALID_LAST_LOGIN", Message: err.Error()},
			},
		}
	}

	return at, nil
}

func (d *defaultHandler) Set(ctx context.Context, userID string, at time.Time) *types.CommonError {
	res := d.client.Set(ctx, d.key(userID), at.UTC().Format(time.RFC3339Nano), 0)
	if res.Err() != nil {
		return &types.CommonError{
			Errors: []types.Error{
				{Code: "FAILED_TO_SET_LAST_LOGIN", Message: res.Err().Error()},
			},
		}
	}
	return nil
}
