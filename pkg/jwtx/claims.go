// Package jwtx issues and verifies the compact signed claims that carry
// the access/refresh session lifecycle. Tokens are ES256 (ECDSA P-256
// with SHA-256) signed with a long-lived keypair loaded from PEM files.
package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthType discriminates the two token roles. An access token must never
// be accepted where a refresh token is required, and vice versa; callers
// check the claim after verification.
type AuthType string

const (
	AuthTypeAccess  AuthType = "access"
	AuthTypeRefresh AuthType = "refresh"
)

// Default token lifetimes. The very short access lifetime bounds the
// exposure window of a leaked bearer token; the refresh token only ever
// travels in an httpOnly strict-same-site cookie.
const (
	DefaultAccessTokenTTL  = time.Minute
	DefaultRefreshTokenTTL = 12 * time.Hour
)

// Claims are the session claims carried by every issued token.
type Claims struct {
	jwt.RegisteredClaims

	// UserID identifies the authenticated user.
	UserID string `json:"userId"`

	// AuthType is "access" or "refresh".
	AuthType AuthType `json:"authType"`
}

func newClaims(userID string, authType AuthType, issuer, audience string, ttl time.Duration, now time.Time) Claims {
	registered := jwt.RegisteredClaims{
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if audience != "" {
		registered.Audience = jwt.ClaimStrings{audience}
	}

	return Claims{
		RegisteredClaims: registered,
		UserID:           userID,
		AuthType:         authType,
	}
}
