package httpx

import (
	"crypto/subtle"
	"net/http"

	"github.com/quollhq/authedge/pkg/slogx"
	"github.com/quollhq/authedge/pkg/wrapx"
)

// BasicAuthMiddleware gates a route behind a single configured
// username/password pair, compared in constant time. Failures are
// reported as the uniform envelope, never a bare status.
func BasicAuthMiddleware(username, password string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || !constantTimeEqual(user, username) || !constantTimeEqual(pass, password) {
				log := slogx.FromContext(r.Context())
				log.Info("basic auth rejected", "path", r.URL.Path)

				w.Header().Set("WWW-Authenticate", `Basic realm="authedge"`)
				WriteResult(w, r, wrapx.Fail(wrapx.KindUnauthorized, "Unauthorized."))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
