package http

import (
	"net/http"

	"github.com/quollhq/authedge/internal/edge/service"
	"github.com/quollhq/authedge/pkg/httpx"
	"github.com/quollhq/authedge/pkg/wrapx"
)

// RefreshHandler reissues an access token from the refresh cookie. The
// response never carries a new refresh token.
type RefreshHandler struct {
	Flow *service.AuthFlow
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(RefreshCookieName)
	if err != nil || c.Value == "" {
		httpx.WriteResult(w, r, wrapx.Fail(wrapx.KindUnauthorized, "Invalid token."))
		return
	}

	httpx.WriteResult(w, r, h.Flow.Refresh(r.Context(), c.Value))
}
