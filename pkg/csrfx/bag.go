package csrfx

import (
	"net/http"
	"sync"
)

// Cookie names for the two persisted CSRF artifacts.
const (
	SecretCookie    = "_csrf"
	SignatureCookie = "_csrf-signature"
)

// SecretBag abstracts where the per-session secret and signature live:
// the client's cookie jar or a server-side session. LoadOrStoreSecret
// must be single-writer per session so two concurrent first requests
// cannot mint two competing secrets.
type SecretBag interface {
	Secret() (string, bool)
	LoadOrStoreSecret(mint func() (string, error)) (string, error)
	Signature() (string, bool)
	SetSignature(signature string)
}

// CookieBag stores the secret and signature in the client's cookie jar.
// Values written during the request are memoized so later reads within
// the same request observe them before the client ever echoes the
// cookie back.
type CookieBag struct {
	w      http.ResponseWriter
	r      *http.Request
	secure bool

	pendingSecret    string
	pendingSignature string
}

// NewCookieBag builds a bag over one request/response pair. secure
// controls the Secure attribute of the cookies it writes.
func NewCookieBag(w http.ResponseWriter, r *http.Request, secure bool) *CookieBag {
	return &CookieBag{w: w, r: r, secure: secure}
}

func (b *CookieBag) Secret() (string, bool) {
	if b.pendingSecret != "" {
		return b.pendingSecret, true
	}
	return b.requestCookie(SecretCookie)
}

func (b *CookieBag) LoadOrStoreSecret(mint func() (string, error)) (string, error) {
	if secret, ok := b.Secret(); ok {
		return secret, nil
	}

	secret, err := mint()
	if err != nil {
		return "", err
	}
	b.pendingSecret = secret
	http.SetCookie(b.w, b.cookie(SecretCookie, secret))
	return secret, nil
}

func (b *CookieBag) Signature() (string, bool) {
	if b.pendingSignature != "" {
		return b.pendingSignature, true
	}
	return b.requestCookie(SignatureCookie)
}

func (b *CookieBag) SetSignature(signature string) {
	b.pendingSignature = signature
	http.SetCookie(b.w, b.cookie(SignatureCookie, signature))
}

func (b *CookieBag) requestCookie(name string) (string, bool) {
	c, err := b.r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (b *CookieBag) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   b.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// SessionBag keeps the artifacts in server memory for one session. A
// mutex serializes secret initialization, closing the race where two
// concurrent first requests would each mint their own secret.
type SessionBag struct {
	mu        sync.Mutex
	secret    string
	signature string
}

func (b *SessionBag) Secret() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.secret, b.secret != ""
}

func (b *SessionBag) LoadOrStoreSecret(mint func() (string, error)) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.secret != "" {
		return b.secret, nil
	}

	secret, err := mint()
	if err != nil {
		return "", err
	}
	b.secret = secret
	return secret, nil
}

func (b *SessionBag) Signature() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.signature, b.signature != ""
}

func (b *SessionBag) SetSignature(signature string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.signature = signature
}
