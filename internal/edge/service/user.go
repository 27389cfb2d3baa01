package service

import (
	"context"
	"errors"

	"github.com/quollhq/authedge/internal/edge/store"
	"github.com/quollhq/authedge/pkg/jwtx"
	"github.com/quollhq/authedge/pkg/slogx"
	"github.com/quollhq/authedge/pkg/wrapx"
)

// AccountService covers the user-facing operations: activation and
// profile lookup.
type AccountService struct {
	Store  store.Store
	Tokens *jwtx.Service
}

// Verify activates the account embedded in an access token. Activating
// an already-active account is Forbidden.
func (s *AccountService) Verify(ctx context.Context, accessToken string) *wrapx.Result {
	log := slogx.FromContext(ctx)

	claims, err := s.Tokens.Verify(accessToken)
	switch {
	case errors.Is(err, jwtx.ErrExpired):
		return wrapx.Fail(wrapx.KindForbidden, "Expired token.")
	case err != nil:
		return wrapx.Fail(wrapx.KindUnauthorized, "Invalid token.")
	}

	if claims.AuthType != jwtx.AuthTypeAccess {
		return wrapx.Fail(wrapx.KindUnauthorized, "Invalid token.")
	}

	cred, err := s.Store.Credentials().GetByUserID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return wrapx.Fail(wrapx.KindNotFound, "User not found")
		}
		log.Error("verify lookup failed", "err", err)
		return wrapx.Fail(wrapx.KindInternalServerError, "")
	}

	if cred.IsActive {
		return wrapx.Fail(wrapx.KindForbidden, "User already active.")
	}

	if err := s.Store.Credentials().Activate(ctx, cred.UserID); err != nil {
		log.Error("activation failed", "err", err)
		return wrapx.Fail(wrapx.KindInternalServerError, "")
	}

	cred.IsActive = true
	return wrapx.Data(cred.Identity())
}

// Profile returns the redacted identity for a user id.
func (s *AccountService) Profile(ctx context.Context, userID string) *wrapx.Result {
	cred, err := s.Store.Credentials().GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return wrapx.Fail(wrapx.KindNotFound, "User not found")
		}
		slogx.FromContext(ctx).Error("profile lookup failed", "err", err)
		return wrapx.Fail(wrapx.KindInternalServerError, "")
	}

	return wrapx.Data(cred.Identity())
}
