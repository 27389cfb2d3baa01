package csrfx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quollhq/authedge/pkg/cryptox"
	"github.com/quollhq/authedge/pkg/csrfx"
	"github.com/quollhq/authedge/pkg/httpx"
	"github.com/quollhq/authedge/pkg/wrapx"
	"github.com/stretchr/testify/require"
)

func newSigner(t *testing.T) *csrfx.Signer {
	t.Helper()
	pemKey, err := cryptox.GenerateSigningKey()
	require.NoError(t, err)
	signer, err := csrfx.NewSignerFromPEM(pemKey)
	require.NoError(t, err)
	return signer
}

func guardedHandler(t *testing.T, guard *csrfx.Guard) http.Handler {
	t.Helper()
	return guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m, ok := csrfx.MinterFromContext(r.Context())
		require.True(t, ok, "guard always installs a minter")

		token, err := m.Token()
		require.NoError(t, err)
		httpx.WriteResult(w, r, wrapx.Data(map[string]string{"CSRFToken": token}))
	}))
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) wrapx.Envelope {
	t.Helper()
	var env wrapx.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func mintedToken(t *testing.T, env wrapx.Envelope) string {
	t.Helper()
	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	token, ok := data["CSRFToken"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)
	return token
}

func TestGuardMisconfigured(t *testing.T) {
	guard := csrfx.NewGuard(newSigner(t), func(http.ResponseWriter, *http.Request) csrfx.SecretBag {
		return nil
	})
	h := guardedHandler(t, guard)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	require.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	require.False(t, env.Success)
	require.Equal(t, csrfx.FeedMisconfigured, *env.Feed)
}

func TestGuardMintThenSubmit(t *testing.T) {
	guard := csrfx.NewGuard(newSigner(t), csrfx.CookieBagFactory(false))
	h := guardedHandler(t, guard)

	// First request mints: secret and signature cookies plus the token.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	token := mintedToken(t, decodeEnvelope(t, rec))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)

	// Mutating request with the cookies and the token header passes.
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	req.Header.Set("x-csrf-token", token)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Query-field submission works too.
	req = httptest.NewRequest(http.MethodPost, "/?_csrf="+token, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGuardPostWithoutToken(t *testing.T) {
	guard := csrfx.NewGuard(newSigner(t), csrfx.CookieBagFactory(false))
	h := guardedHandler(t, guard)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, csrfx.FeedInvalidToken, *decodeEnvelope(t, rec).Feed)
}

func TestGuardForeignToken(t *testing.T) {
	guard := csrfx.NewGuard(newSigner(t), csrfx.CookieBagFactory(false))
	h := guardedHandler(t, guard)

	var tokens csrfx.Tokens
	secret, err := tokens.Secret()
	require.NoError(t, err)
	foreignSecret, err := tokens.Secret()
	require.NoError(t, err)
	foreignToken, err := tokens.Create(foreignSecret)
	require.NoError(t, err)

	// Secret cookie present, no signature cookie, token minted against a
	// different secret: fails the double-submit check.
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: csrfx.SecretCookie, Value: secret})
	req.Header.Set("x-csrf-token", foreignToken)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, csrfx.FeedInvalidToken, *decodeEnvelope(t, rec).Feed)
}

func TestGuardSignatureMismatch(t *testing.T) {
	signer := newSigner(t)
	guard := csrfx.NewGuard(signer, csrfx.CookieBagFactory(false))
	h := guardedHandler(t, guard)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	token := mintedToken(t, decodeEnvelope(t, rec))

	var secretCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == csrfx.SecretCookie {
			secretCookie = c
		}
	}
	require.NotNil(t, secretCookie)

	// Signature over a different message: the token still verifies
	// against the secret, yet the request must be rejected.
	wrongSig, err := signer.Sign("not-the-token")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(secretCookie)
	req.AddCookie(&http.Cookie{Name: csrfx.SignatureCookie, Value: wrongSig})
	req.Header.Set("x-csrf-token", token)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, csrfx.FeedBadSignature, *decodeEnvelope(t, rec).Feed)
}

func TestGuardSignatureCheckedOnIgnoredMethods(t *testing.T) {
	signer := newSigner(t)
	guard := csrfx.NewGuard(signer, csrfx.CookieBagFactory(false))
	h := guardedHandler(t, guard)

	wrongSig, err := signer.Sign("something-else")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: csrfx.SignatureCookie, Value: wrongSig})
	req.Header.Set("x-csrf-token", "whatever-token")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, csrfx.FeedBadSignature, *decodeEnvelope(t, rec).Feed)
}

func TestMinterIdempotentPerSecret(t *testing.T) {
	signer := newSigner(t)
	var bag csrfx.SessionBag
	var tokens csrfx.Tokens

	minter := csrfx.NewMinter(&bag, signer)
	first, err := minter.Token()
	require.NoError(t, err)

	again, err := minter.Token()
	require.NoError(t, err)
	require.Equal(t, first, again, "same minter, same secret, same token")

	// A second mint on the same session produces a fresh token that
	// still verifies against the secret persisted by the first call.
	second, err := csrfx.NewMinter(&bag, signer).Token()
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	secret, ok := bag.Secret()
	require.True(t, ok)
	require.True(t, tokens.Verify(secret, first))
	require.True(t, tokens.Verify(secret, second))

	// The signature in the bag tracks the latest minted token.
	sig, ok := bag.Signature()
	require.True(t, ok)
	require.NoError(t, signer.Verify(second, sig))
}
