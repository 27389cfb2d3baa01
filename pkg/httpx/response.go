package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/quollhq/authedge/pkg/wrapx"
)

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// Required for responses carrying tokens or credentials.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// WriteResult renders a Result as the uniform wire envelope, measuring
// elapsed time from the start stamp TimingMiddleware placed in the
// context. Cookies are set before the body is written.
func WriteResult(w http.ResponseWriter, r *http.Request, res *wrapx.Result, cookies ...*http.Cookie) {
	for _, c := range cookies {
		http.SetCookie(w, c)
	}

	status, body := res.Envelope(ElapsedMs(r.Context()))
	WriteJSON(w, status, body)
}
