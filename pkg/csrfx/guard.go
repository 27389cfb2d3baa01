package csrfx

import (
	"context"
	"net/http"
	"strings"

	"github.com/quollhq/authedge/pkg/httpx"
	"github.com/quollhq/authedge/pkg/slogx"
	"github.com/quollhq/authedge/pkg/wrapx"
)

// Feed messages for the three guard failure modes.
const (
	FeedMisconfigured = "Misconfigured csrf."
	FeedBadSignature  = "Bad CSRF signature."
	FeedInvalidToken  = "Invalid csrf token."
)

// tokenHeaders in lookup order after body and query.
var tokenHeaders = []string{"csrf-token", "xsrf-token", "x-csrf-token", "x-xsrf-token"}

// Minter mints the session's CSRF token. Token is idempotent while the
// underlying secret is unchanged; every newly minted token is signed
// and the signature persisted in the bag.
type Minter struct {
	bag    SecretBag
	signer *Signer
	tokens Tokens

	token      string
	secretUsed string
}

// NewMinter builds a Minter over the given bag.
func NewMinter(bag SecretBag, signer *Signer) *Minter {
	return &Minter{bag: bag, signer: signer}
}

// Token returns the session's CSRF token, creating the secret on first
// use. Repeated calls against the same secret return the cached token.
func (m *Minter) Token() (string, error) {
	secret, err := m.bag.LoadOrStoreSecret(m.tokens.Secret)
	if err != nil {
		return "", err
	}

	if m.token != "" && m.secretUsed == secret {
		return m.token, nil
	}

	token, err := m.tokens.Create(secret)
	if err != nil {
		return "", err
	}
	signature, err := m.signer.Sign(token)
	if err != nil {
		return "", err
	}
	m.bag.SetSignature(signature)

	m.token = token
	m.secretUsed = secret
	return token, nil
}

type minterKey struct{}

func withMinter(ctx context.Context, m *Minter) context.Context {
	return context.WithValue(ctx, minterKey{}, m)
}

// MinterFromContext returns the Minter the guard placed in the request
// context, if the request passed through the guard.
func MinterFromContext(ctx context.Context) (*Minter, bool) {
	m, ok := ctx.Value(minterKey{}).(*Minter)
	return m, ok
}

// BagFactory supplies the secret bag for one request. Returning nil
// signals that no bag can be reached, which the guard reports as a
// misconfiguration.
type BagFactory func(w http.ResponseWriter, r *http.Request) SecretBag

// CookieBagFactory backs the guard with the client's cookie jar.
func CookieBagFactory(secure bool) BagFactory {
	return func(w http.ResponseWriter, r *http.Request) SecretBag {
		return NewCookieBag(w, r, secure)
	}
}

// Guard is the request-time CSRF middleware. Evaluation order:
//
//  1. no reachable secret bag: Conflict.
//  2. submitted token plus signature cookie present: verify the
//     signature; mismatch or decode failure is Unauthorized.
//  3. ignored methods (GET, HEAD, OPTIONS) pass through.
//  4. anything else must carry a token that verifies against the
//     session secret, created here if absent; failure is Unauthorized.
type Guard struct {
	signer  *Signer
	tokens  Tokens
	bags    BagFactory
	ignored map[string]bool
}

// NewGuard builds a Guard over the given signer and bag factory.
func NewGuard(signer *Signer, bags BagFactory) *Guard {
	return &Guard{
		signer: signer,
		bags:   bags,
		ignored: map[string]bool{
			http.MethodGet:     true,
			http.MethodHead:    true,
			http.MethodOptions: true,
		},
	}
}

// Middleware returns the guard as a chainable middleware.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := slogx.FromContext(r.Context())

		var bag SecretBag
		if g.bags != nil {
			bag = g.bags(w, r)
		}
		if bag == nil {
			httpx.WriteResult(w, r, wrapx.Fail(wrapx.KindConflict, FeedMisconfigured))
			return
		}

		token := lookupToken(r)
		if signature, ok := bag.Signature(); token != "" && ok {
			if err := g.signer.Verify(token, signature); err != nil {
				log.Warn("csrf signature rejected", "err", err)
				httpx.WriteResult(w, r, wrapx.Fail(wrapx.KindUnauthorized, FeedBadSignature))
				return
			}
		}

		r = r.WithContext(withMinter(r.Context(), NewMinter(bag, g.signer)))

		if g.ignored[r.Method] {
			next.ServeHTTP(w, r)
			return
		}

		secret, err := bag.LoadOrStoreSecret(g.tokens.Secret)
		if err != nil || !g.tokens.Verify(secret, token) {
			log.Info("csrf token rejected", "path", r.URL.Path)
			httpx.WriteResult(w, r, wrapx.Fail(wrapx.KindUnauthorized, FeedInvalidToken))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// lookupToken finds the submitted token: body field, then query field,
// then the header variants, first non-empty wins. The body is only
// parsed for form content types so JSON bodies stay untouched for the
// downstream handler.
func lookupToken(r *http.Request) string {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(ct, "multipart/form-data") {
		if v := r.PostFormValue("_csrf"); v != "" {
			return v
		}
	}
	if v := r.URL.Query().Get("_csrf"); v != "" {
		return v
	}
	for _, h := range tokenHeaders {
		if v := r.Header.Get(h); v != "" {
			return v
		}
	}
	return ""
}
