package actorctx

import (
	"context"

	"github.com/geocoder89/authhub/internal/domain/user"
)

type ctxKey string

const (
	keyIdentity  ctxKey = "identity"
	keyRequestID ctxKey = "request_id"
)

func WithIdentity(ctx context.Context, id user.Identity) context.Context {
	return context.WithValue(ctx, keyIdentity, id)
}

func IdentityFrom(ctx context.Context) (user.Identity, bool) {
	v, ok := ctx.Value(keyIdentity).(user.Identity)

	return v, ok && v.UserID != 0
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

func RequestIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyRequestID).(string)

	return v, ok && v != ""
}
