package http

import (
	"net/http"

	"github.com/quollhq/authedge/internal/edge/service"
	"github.com/quollhq/authedge/pkg/httpx"
	"github.com/quollhq/authedge/pkg/wrapx"
)

// ProfileHandler returns the authenticated user's redacted identity.
type ProfileHandler struct {
	Accounts *service.AccountService
}

func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteResult(w, r, wrapx.Fail(wrapx.KindUnauthorized, "Invalid token."))
		return
	}

	httpx.WriteResult(w, r, h.Accounts.Profile(r.Context(), claims.UserID))
}
