package http

import (
	"errors"
	"net/http"

	"github.com/quollhq/authedge/pkg/httpx"
	"github.com/quollhq/authedge/pkg/jwtx"
	"github.com/quollhq/authedge/pkg/slogx"
	"github.com/quollhq/authedge/pkg/wrapx"
)

// AccessTokenHeader carries the short-lived access token on resource
// requests. The refresh token travels only in the session cookie, so
// the two token types never share a name.
const AccessTokenHeader = "x-access-token"

// AccessTokenMiddleware verifies the access token and injects its
// claims into the request context. A refresh token presented here is
// Forbidden, never silently accepted.
func AccessTokenMiddleware(tokens *jwtx.Service) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(AccessTokenHeader)
			if raw == "" {
				httpx.WriteResult(w, r, wrapx.Fail(wrapx.KindUnauthorized, "Invalid token."))
				return
			}

			claims, err := tokens.Verify(raw)
			switch {
			case errors.Is(err, jwtx.ErrExpired):
				httpx.WriteResult(w, r, wrapx.Fail(wrapx.KindUnauthorized, "Expired token."))
				return
			case err != nil:
				slogx.FromContext(r.Context()).Warn("access token rejected", "err", err)
				httpx.WriteResult(w, r, wrapx.Fail(wrapx.KindUnauthorized, "Invalid token."))
				return
			}

			if claims.AuthType != jwtx.AuthTypeAccess {
				httpx.WriteResult(w, r, wrapx.Fail(wrapx.KindForbidden, "Invalid token."))
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}
