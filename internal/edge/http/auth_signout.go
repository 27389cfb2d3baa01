package http

import (
	"net/http"

	"github.com/quollhq/authedge/internal/edge/service"
	"github.com/quollhq/authedge/pkg/httpx"
)

// SignOutHandler clears every cookie on the request and reports the
// previously held session token, if any, as the removed artifact.
type SignOutHandler struct {
	Flow *service.AuthFlow
}

func (h *SignOutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	previous := ""
	if c, err := r.Cookie(RefreshCookieName); err == nil {
		previous = c.Value
	}

	expired := make([]*http.Cookie, 0, len(r.Cookies()))
	for _, c := range r.Cookies() {
		expired = append(expired, &http.Cookie{
			Name:   c.Name,
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		})
	}

	httpx.WriteResult(w, r, h.Flow.SignOut(previous), expired...)
}
