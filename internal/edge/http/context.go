package http

import (
	"context"

	"github.com/quollhq/authedge/pkg/jwtx"
)

type claimsKey struct{}

func withClaims(ctx context.Context, c *jwtx.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext returns the verified access-token claims the guard
// placed in the request context.
func ClaimsFromContext(ctx context.Context) (*jwtx.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*jwtx.Claims)
	return c, ok
}
