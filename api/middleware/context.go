package middleware

import (
	"context"

	"github.com/cocoaloft/storefront-backend/pkg/types"
)

type contextKey string

const ctxIdentity contextKey = "identity"

// IdentityFromContext returns the caller identity seeded by the Identity
// middleware, or the zero value when the request carried neither a token nor
// a guest cookie.
func IdentityFromContext(ctx context.Context) types.Identity {
	if ctx == nil {
		return types.Identity{}
	}
	if v, ok := ctx.Value(ctxIdentity).(types.Identity); ok {
		return v
	}
	return types.Identity{}
}

// WithIdentity injects the caller identity into the context.
func WithIdentity(ctx context.Context, id types.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdentity, id)
}
