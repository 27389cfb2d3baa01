package http

import (
	"net/http"

	"github.com/quollhq/authedge/internal/edge/service"
	"github.com/quollhq/authedge/pkg/httpx"
	"github.com/quollhq/authedge/pkg/wrapx"
)

// VerifyHandler activates the account embedded in the access token
// carried in the path.
type VerifyHandler struct {
	Accounts *service.AccountService
}

func (h *VerifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("accessToken")
	if token == "" {
		httpx.WriteResult(w, r, wrapx.Fail(wrapx.KindBadRequest, "Data required."))
		return
	}

	httpx.WriteResult(w, r, h.Accounts.Verify(r.Context(), token))
}
