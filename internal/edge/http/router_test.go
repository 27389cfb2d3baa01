package http_test

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	edgehttp "github.com/quollhq/authedge/internal/edge/http"
	"github.com/quollhq/authedge/internal/edge/service"
	"github.com/quollhq/authedge/internal/edge/store/drivers/sqlite"
	"github.com/quollhq/authedge/pkg/cryptox"
	"github.com/quollhq/authedge/pkg/csrfx"
	"github.com/quollhq/authedge/pkg/jwtx"
	"github.com/quollhq/authedge/pkg/wrapx"
)

const (
	basicUser = "svc"
	basicPass = "secret"
)

type env struct {
	router *edgehttp.Router
	tokens *jwtx.Service
	flow   *service.AuthFlow
}

func newEnv(t *testing.T) *env {
	t.Helper()

	cipher, err := cryptox.NewCipher(cryptox.AlgorithmGCM, []byte("0123456789abcdef0123456789abcdef"), 12, ":")
	require.NoError(t, err)
	scheme := cryptox.EnvelopeScheme{Cipher: cipher}

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "edge.db"), scheme.Seal)
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	tokens, err := jwtx.NewServiceFromPEM("authedge", "",
		time.Minute, 12*time.Hour,
		pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}),
		pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}),
	)
	require.NoError(t, err)

	signingPEM, err := cryptox.GenerateSigningKey()
	require.NoError(t, err)
	signer, err := csrfx.NewSignerFromPEM(signingPEM)
	require.NoError(t, err)

	flow := &service.AuthFlow{
		Store:     st,
		Tokens:    tokens,
		Passwords: scheme,
		Namespace: uuid.MustParse("9f2c1f66-0a42-5b84-9d5e-000000000001"),
	}

	router := edgehttp.NewRouter(edgehttp.RouterConfig{
		Version:  "test",
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:    st,
		Tokens:   tokens,
		AuthFlow: flow,
		Accounts: &service.AccountService{Store: st, Tokens: tokens},
		Guard:    csrfx.NewGuard(signer, csrfx.CookieBagFactory(false)),

		BasicUser: basicUser,
		BasicPass: basicPass,
	})
	router.ApplyRoutes()

	return &env{router: router, tokens: tokens, flow: flow}
}

func (e *env) do(t *testing.T, method, path string, body any, cookies []*http.Cookie, csrfToken string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.SetBasicAuth(basicUser, basicPass)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	if csrfToken != "" {
		req.Header.Set("csrf-token", csrfToken)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) wrapx.Envelope {
	t.Helper()
	var env wrapx.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func data(t *testing.T, env wrapx.Envelope) map[string]any {
	t.Helper()
	m, ok := env.Data.(map[string]any)
	require.True(t, ok, "data is an object")
	return m
}

// mintCsrf fetches a token through the csrf endpoint and returns it
// with the cookies the response set.
func (e *env) mintCsrf(t *testing.T) (string, []*http.Cookie) {
	t.Helper()

	rec := e.do(t, http.MethodGet, "/v0/auth/csrf", nil, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	token := data(t, decode(t, rec))["CSRFToken"].(string)
	require.NotEmpty(t, token)
	return token, rec.Result().Cookies()
}

func (e *env) signUpAlice(t *testing.T) map[string]any {
	t.Helper()

	token, cookies := e.mintCsrf(t)
	rec := e.do(t, http.MethodPost, "/v0/auth/sign-up", map[string]string{
		"username": "alice",
		"email":    "A@X.com",
		"password": "longenough1",
	}, cookies, token)
	require.Equal(t, http.StatusOK, rec.Code)
	return data(t, decode(t, rec))
}

func (e *env) activateAlice(t *testing.T, userID string) {
	t.Helper()

	access, err := e.tokens.Issue(userID, jwtx.AuthTypeAccess)
	require.NoError(t, err)
	rec := e.do(t, http.MethodGet, "/v0/user/verify/"+access, nil, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	e := newEnv(t)

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestBasicAuthRequired(t *testing.T) {
	e := newEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v0/auth/csrf", nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, decode(t, rec).Success)
}

func TestSignUpLowercasesEmailAndRejectsDuplicate(t *testing.T) {
	e := newEnv(t)

	created := e.signUpAlice(t)
	require.Equal(t, "a@x.com", created["email"])
	require.Equal(t, false, created["isActive"])
	require.NotContains(t, created, "encryptedPassword")

	// Second sign-up with the same email, different casing and username.
	token, cookies := e.mintCsrf(t)
	rec := e.do(t, http.MethodPost, "/v0/auth/sign-up", map[string]string{
		"username": "alicia",
		"email":    "a@X.COM",
		"password": "whatever12",
	}, cookies, token)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "User already exist.", *decode(t, rec).Feed)
}

func TestSignUpRequiresCsrfToken(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/v0/auth/sign-up", map[string]string{
		"username": "alice", "email": "a@x.com", "password": "longenough1",
	}, nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, csrfx.FeedInvalidToken, *decode(t, rec).Feed)
}

func TestSignInRefreshRoundTrip(t *testing.T) {
	e := newEnv(t)
	created := e.signUpAlice(t)
	e.activateAlice(t, created["userId"].(string))

	token, cookies := e.mintCsrf(t)
	rec := e.do(t, http.MethodPost, "/v0/auth/sign-in", map[string]string{
		"identity": "alice",
		"password": "longenough1",
	}, cookies, token)
	require.Equal(t, http.StatusOK, rec.Code)

	payload := data(t, decode(t, rec))
	require.NotEmpty(t, payload["accessToken"])
	require.NotEmpty(t, payload["refreshToken"])

	var refreshCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == edgehttp.RefreshCookieName {
			refreshCookie = c
		}
	}
	require.NotNil(t, refreshCookie, "sign-in sets the session cookie")
	require.True(t, refreshCookie.HttpOnly)
	require.Equal(t, payload["refreshToken"], refreshCookie.Value)

	// Refresh using the cookie: new access token, no refreshToken field.
	rec = e.do(t, http.MethodGet, "/v0/auth/refresh", nil, []*http.Cookie{refreshCookie}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	refreshed := data(t, decode(t, rec))
	require.NotEmpty(t, refreshed["accessToken"])
	require.NotContains(t, refreshed, "refreshToken")

	claims, err := e.tokens.Verify(refreshed["accessToken"].(string))
	require.NoError(t, err)
	require.Equal(t, jwtx.AuthTypeAccess, claims.AuthType)
}

func TestSignInFailureStatuses(t *testing.T) {
	e := newEnv(t)
	e.signUpAlice(t) // left inactive

	token, cookies := e.mintCsrf(t)
	rec := e.do(t, http.MethodPost, "/v0/auth/sign-in", map[string]string{
		"identity": "alice", "password": "longenough1",
	}, cookies, token)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "User is inactive.", *decode(t, rec).Feed)

	token, cookies = e.mintCsrf(t)
	rec = e.do(t, http.MethodPost, "/v0/auth/sign-in", map[string]string{
		"identity": "nobody", "password": "longenough1",
	}, cookies, token)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Identity unknown.", *decode(t, rec).Feed)
}

func TestRefreshWithoutCookie(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/v0/auth/refresh", nil, nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Invalid token.", *decode(t, rec).Feed)
}

func TestRefreshExpiredIsForbidden(t *testing.T) {
	e := newEnv(t)
	created := e.signUpAlice(t)

	expired, err := e.tokens.IssueWithTTL(created["userId"].(string), jwtx.AuthTypeRefresh, -time.Second)
	require.NoError(t, err)

	rec := e.do(t, http.MethodGet, "/v0/auth/refresh", nil,
		[]*http.Cookie{{Name: edgehttp.RefreshCookieName, Value: expired}}, "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "Expired token.", *decode(t, rec).Feed)
}

func TestVerifyActivationIsOneShot(t *testing.T) {
	e := newEnv(t)
	created := e.signUpAlice(t)

	access, err := e.tokens.Issue(created["userId"].(string), jwtx.AuthTypeAccess)
	require.NoError(t, err)

	rec := e.do(t, http.MethodGet, "/v0/user/verify/"+access, nil, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, data(t, decode(t, rec))["isActive"])

	rec = e.do(t, http.MethodGet, "/v0/user/verify/"+access, nil, nil, "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "User already active.", *decode(t, rec).Feed)
}

func TestProfileGuard(t *testing.T) {
	e := newEnv(t)
	created := e.signUpAlice(t)
	userID := created["userId"].(string)
	e.activateAlice(t, userID)

	access, err := e.tokens.Issue(userID, jwtx.AuthTypeAccess)
	require.NoError(t, err)
	refresh, err := e.tokens.Issue(userID, jwtx.AuthTypeRefresh)
	require.NoError(t, err)

	// No token at all.
	rec := e.do(t, http.MethodPost, "/v0/user/profile", nil, nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// A refresh token is never accepted as an access token.
	req := httptest.NewRequest(http.MethodPost, "/v0/user/profile", nil)
	req.SetBasicAuth(basicUser, basicPass)
	req.Header.Set(edgehttp.AccessTokenHeader, refresh)
	rec = httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// The real thing.
	req = httptest.NewRequest(http.MethodPost, "/v0/user/profile", nil)
	req.SetBasicAuth(basicUser, basicPass)
	req.Header.Set(edgehttp.AccessTokenHeader, access)
	rec = httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, userID, data(t, decode(t, rec))["userId"])
}

func TestSignOutClearsCookies(t *testing.T) {
	e := newEnv(t)

	token, cookies := e.mintCsrf(t)
	cookies = append(cookies, &http.Cookie{Name: edgehttp.RefreshCookieName, Value: "held-token"})

	rec := e.do(t, http.MethodGet, "/v0/auth/sign-out", nil, cookies, token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "held-token", data(t, decode(t, rec))["removed"])

	cleared := map[string]bool{}
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			cleared[c.Name] = true
		}
	}
	require.True(t, cleared[edgehttp.RefreshCookieName])
	require.True(t, cleared[csrfx.SecretCookie])
	require.True(t, cleared[csrfx.SignatureCookie])
}
