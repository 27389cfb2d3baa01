// Package csrfx implements the double-submit CSRF defense: a per-session
// secret held in a secret bag, tokens derived from that secret, and an
// ECDSA signature binding each minted token to the server's identity.
package csrfx

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/quollhq/authedge/pkg/cryptox"
)

const (
	secretSize = cryptox.TokenSize144
	saltLength = 8
)

// Salt alphabet excludes '-', which separates salt from hash.
const saltChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Tokens derives and verifies double-submit tokens from a session
// secret. A token is `salt + "-" + base64url(sha256(salt + "-" + secret))`,
// so any token minted against a secret verifies against that secret and
// no other.
type Tokens struct{}

// Secret generates a fresh session secret.
func (Tokens) Secret() (string, error) {
	return cryptox.GenerateToken(secretSize)
}

// Create derives a new token from the secret with a fresh salt.
func (Tokens) Create(secret string) (string, error) {
	salt, err := randomSalt(saltLength)
	if err != nil {
		return "", err
	}
	return tokenize(salt, secret), nil
}

// Verify reports whether token was derived from secret. The comparison
// is constant-time over the full token.
func (Tokens) Verify(secret, token string) bool {
	if secret == "" || token == "" {
		return false
	}

	salt, _, ok := strings.Cut(token, "-")
	if !ok || salt == "" {
		return false
	}

	expected := tokenize(salt, secret)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(token)) == 1
}

func tokenize(salt, secret string) string {
	digest := sha256.Sum256([]byte(salt + "-" + secret))
	return salt + "-" + base64.RawURLEncoding.EncodeToString(digest[:])
}

func randomSalt(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("csrfx: generate salt: %w", err)
	}
	for i, b := range buf {
		buf[i] = saltChars[int(b)%len(saltChars)]
	}
	return string(buf), nil
}
