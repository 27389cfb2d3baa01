package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/quollhq/authedge/internal/edge/service"
	"github.com/quollhq/authedge/pkg/httpx"
	"github.com/quollhq/authedge/pkg/wrapx"
)

// RefreshCookieName is the httpOnly strict-same-site cookie carrying
// the refresh token between sign-in and refresh.
const RefreshCookieName = "x-authorization"

// SignInHandler authenticates a user and issues the token pair. The
// refresh token is additionally set as the session cookie.
type SignInHandler struct {
	Flow       *service.AuthFlow
	RefreshTTL time.Duration
	Secure     bool
}

type signInRequest struct {
	Identity string `json:"identity"`
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// identity returns the first supplied identity field, mirroring the
// lookup priority downstream: user id, then email, then username.
func (in signInRequest) identity() string {
	for _, v := range []string{in.Identity, in.UserID, in.Email, in.Username} {
		if v != "" {
			return v
		}
	}
	return ""
}

func (h *SignInHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var in signInRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil ||
		in.identity() == "" || in.Password == "" {
		httpx.WriteResult(w, r, wrapx.Fail(wrapx.KindBadRequest, "Data required."))
		return
	}

	res := h.Flow.SignIn(r.Context(), in.identity(), in.Password)
	if !res.OK() {
		httpx.WriteResult(w, r, res)
		return
	}

	pair := res.Data.(service.TokenPair)
	httpx.WriteResult(w, r, res, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   int(h.RefreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
