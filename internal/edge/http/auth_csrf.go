package http

import (
	"net/http"

	"github.com/quollhq/authedge/internal/edge/service"
	"github.com/quollhq/authedge/pkg/csrfx"
	"github.com/quollhq/authedge/pkg/httpx"
)

// CsrfHandler mints and returns the session's CSRF token.
type CsrfHandler struct {
	Flow *service.AuthFlow
}

func (h *CsrfHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var minter service.CsrfMinter
	if m, ok := csrfx.MinterFromContext(r.Context()); ok {
		minter = m
	}

	httpx.WriteResult(w, r, h.Flow.Csrf(r.Context(), minter))
}
