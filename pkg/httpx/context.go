package httpx

import (
	"context"

	"github.com/copperline/streamgate/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUserID ctxKey = "user_id"
	CtxKeyClaims ctxKey = "claims"
)

// UserIDFromContext returns the authenticated account id, if any.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserID).(string); ok {
		return v
	}
	return ""
}

// ClaimsFromContext returns the verified access-token claims, if any.
func ClaimsFromContext(ctx context.Context) *jwtx.Claims {
	if v, ok := ctx.Value(CtxKeyClaims).(*jwtx.Claims); ok {
		return v
	}
	return nil
}
