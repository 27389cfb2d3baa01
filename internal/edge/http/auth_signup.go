package http

import (
	"encoding/json"
	"net/http"

	"github.com/quollhq/authedge/internal/edge/service"
	"github.com/quollhq/authedge/pkg/httpx"
	"github.com/quollhq/authedge/pkg/wrapx"
)

// SignUpHandler creates a new account.
type SignUpHandler struct {
	Flow *service.AuthFlow
}

func (h *SignUpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var in service.SignUpInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil ||
		in.Username == "" || in.Email == "" || in.Password == "" {
		httpx.WriteResult(w, r, wrapx.Fail(wrapx.KindBadRequest, "Data required."))
		return
	}

	httpx.WriteResult(w, r, h.Flow.SignUp(r.Context(), in))
}
