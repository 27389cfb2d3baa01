// Package service holds the business logic behind the auth endpoints.
// Every operation reports its outcome through a wrapx.Result; expected
// failures never cross the boundary as Go errors.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/quollhq/authedge/internal/edge/domain"
	"github.com/quollhq/authedge/internal/edge/store"
	"github.com/quollhq/authedge/pkg/cryptox"
	"github.com/quollhq/authedge/pkg/jwtx"
	"github.com/quollhq/authedge/pkg/slogx"
	"github.com/quollhq/authedge/pkg/wrapx"
)

// CsrfMinter is the token-capable request artifact the csrf operation
// requires. The guard middleware injects one per request.
type CsrfMinter interface {
	Token() (string, error)
}

// AuthFlow orchestrates sign-up, sign-in, sign-out, refresh and csrf.
type AuthFlow struct {
	Store     store.Store
	Tokens    *jwtx.Service
	Passwords cryptox.PasswordScheme

	// Namespace feeds the deterministic UUIDv5 identity derivation, so
	// the same username always maps to the same user id.
	Namespace uuid.UUID
}

// SignUpInput is the credential material for a new account.
type SignUpInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair is the sign-in payload: both tokens plus the redacted
// identity. The handler moves RefreshToken into the session cookie.
type TokenPair struct {
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	Identity     domain.Identity `json:"identity"`
}

// Refreshed is the refresh payload. It deliberately has no refresh
// token field: the original refresh credential stays the only one until
// its natural expiry.
type Refreshed struct {
	AccessToken string          `json:"accessToken"`
	Identity    domain.Identity `json:"identity"`
}

// SignUp creates an account. The user id derives deterministically from
// the username, the email is stored lower-cased, and the password is
// sealed by the store's write-time hook.
func (f *AuthFlow) SignUp(ctx context.Context, in SignUpInput) *wrapx.Result {
	log := slogx.FromContext(ctx)

	_, err := f.Store.Credentials().GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return wrapx.Fail(wrapx.KindConflict, "User already exist.")
	case !errors.Is(err, store.ErrNotFound):
		log.Error("sign-up lookup failed", "err", err)
		return wrapx.Fail(wrapx.KindInternalServerError, "")
	}

	created, err := f.Store.Credentials().Create(ctx, domain.Credential{
		UserID:   uuid.NewSHA1(f.Namespace, []byte(in.Username)).String(),
		Username: in.Username,
		Email:    strings.ToLower(in.Email),
	}, in.Password)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return wrapx.Fail(wrapx.KindConflict, "User already exist.")
		}
		log.Error("sign-up create failed", "err", err)
		return wrapx.Fail(wrapx.KindInternalServerError, "")
	}

	return wrapx.Data(created)
}

// SignIn resolves the identity, verifies the password and issues an
// access/refresh token pair.
func (f *AuthFlow) SignIn(ctx context.Context, identity, password string) *wrapx.Result {
	log := slogx.FromContext(ctx)

	cred, res := f.resolveIdentity(ctx, identity)
	if res != nil {
		return res
	}

	if !cred.IsActive {
		return wrapx.Fail(wrapx.KindForbidden, "User is inactive.")
	}

	if !f.Passwords.Verify(cred.EncryptedPassword, password) {
		log.Info("sign-in rejected", "userId", cred.UserID)
		return wrapx.Fail(wrapx.KindConflict, "Wrong credentials given.")
	}

	access, err := f.Tokens.Issue(cred.UserID, jwtx.AuthTypeAccess)
	if err != nil {
		log.Error("access token issue failed", "err", err)
		return wrapx.Fail(wrapx.KindInternalServerError, "")
	}
	refresh, err := f.Tokens.Issue(cred.UserID, jwtx.AuthTypeRefresh)
	if err != nil {
		log.Error("refresh token issue failed", "err", err)
		return wrapx.Fail(wrapx.KindInternalServerError, "")
	}

	return wrapx.Data(TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		Identity:     cred.Identity(),
	})
}

// SignOut reports the previously held access token (or nil) as the
// removed artifact; the handler clears the cookies themselves.
func (f *AuthFlow) SignOut(previous string) *wrapx.Result {
	var removed any
	if previous != "" {
		removed = previous
	}
	return wrapx.Data(map[string]any{"removed": removed})
}

// Refresh reissues an access token from a still-valid refresh token.
// An expired refresh token is Forbidden (re-authenticate); any other
// verification failure is Unauthorized.
func (f *AuthFlow) Refresh(ctx context.Context, refreshToken string) *wrapx.Result {
	log := slogx.FromContext(ctx)

	claims, err := f.Tokens.Verify(refreshToken)
	switch {
	case errors.Is(err, jwtx.ErrExpired):
		return wrapx.Fail(wrapx.KindForbidden, "Expired token.")
	case err != nil:
		return wrapx.Fail(wrapx.KindUnauthorized, "Invalid token.")
	}

	if claims.AuthType != jwtx.AuthTypeRefresh {
		return wrapx.Fail(wrapx.KindUnauthorized, "Invalid token.")
	}

	cred, err := f.Store.Credentials().GetByUserID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return wrapx.Fail(wrapx.KindNotFound, "User not found")
		}
		log.Error("refresh lookup failed", "err", err)
		return wrapx.Fail(wrapx.KindInternalServerError, "")
	}

	access, err := f.Tokens.Issue(cred.UserID, jwtx.AuthTypeAccess)
	if err != nil {
		log.Error("access token issue failed", "err", err)
		return wrapx.Fail(wrapx.KindInternalServerError, "")
	}

	return wrapx.Data(Refreshed{
		AccessToken: access,
		Identity:    cred.Identity(),
	})
}

// Csrf mints the session's CSRF token.
func (f *AuthFlow) Csrf(ctx context.Context, minter CsrfMinter) *wrapx.Result {
	if minter == nil {
		return wrapx.Fail(wrapx.KindBadRequest, "Data required.")
	}

	token, err := minter.Token()
	if err != nil {
		slogx.FromContext(ctx).Error("csrf mint failed", "err", err)
		return wrapx.Fail(wrapx.KindInternalServerError, "")
	}

	return wrapx.Data(map[string]string{"CSRFToken": token})
}

// resolveIdentity tries user id, then email, then username, first match
// wins. Lookups are case-insensitive at the store level.
func (f *AuthFlow) resolveIdentity(ctx context.Context, identity string) (domain.Credential, *wrapx.Result) {
	log := slogx.FromContext(ctx)

	lookups := []func(context.Context, string) (domain.Credential, error){
		f.Store.Credentials().GetByUserID,
		f.Store.Credentials().GetByEmail,
		f.Store.Credentials().GetByUsername,
	}

	for _, lookup := range lookups {
		cred, err := lookup(ctx, identity)
		switch {
		case err == nil:
			return cred, nil
		case !errors.Is(err, store.ErrNotFound):
			log.Error("identity lookup failed", "err", err)
			return domain.Credential{}, wrapx.Fail(wrapx.KindInternalServerError, "")
		}
	}

	return domain.Credential{}, wrapx.Fail(wrapx.KindNotFound, "Identity unknown.")
}
