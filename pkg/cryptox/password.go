package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// PasswordScheme turns a plaintext password into its stored form and
// checks a candidate against a stored value. Two implementations exist:
// EnvelopeScheme reproduces the reversible-cipher credential model of
// the original service, Argon2idScheme is the hardened one-way
// alternative selectable via configuration.
type PasswordScheme interface {
	Seal(plaintext string) (string, error)
	Verify(stored, candidate string) bool
}

// EnvelopeScheme stores passwords as symmetric cipher envelopes and
// verifies by decrypt-then-compare. Key compromise reveals every stored
// password; kept selectable for compatibility with existing data.
type EnvelopeScheme struct {
	Cipher *Cipher
}

func (s EnvelopeScheme) Seal(plaintext string) (string, error) {
	return s.Cipher.Encrypt(plaintext)
}

func (s EnvelopeScheme) Verify(stored, candidate string) bool {
	plaintext, err := s.Cipher.Decrypt(stored)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(plaintext), []byte(candidate)) == 1
}

// Argon2id parameters.
const (
	argonMemory      = 19 * 1024 // KiB
	argonIterations  = 2
	argonParallelism = 1
	argonKeyLength   = 32
	argonSaltLength  = 16
)

// Argon2idScheme stores a PHC-format Argon2id hash.
type Argon2idScheme struct{}

func (Argon2idScheme) Seal(plaintext string) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey(
		[]byte(plaintext),
		salt,
		argonIterations,
		argonMemory,
		argonParallelism,
		argonKeyLength,
	)

	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		argonMemory,
		argonIterations,
		argonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func (Argon2idScheme) Verify(stored, candidate string) bool {
	return verifyArgon2id(stored, candidate) == nil
}

func verifyArgon2id(encoded, candidate string) error {
	// PHC format: $argon2id$v=19$m=X,t=Y,p=Z$salt$hash
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return errors.New("invalid hash format")
	}
	if parts[1] != "argon2id" || parts[2] != "v=19" {
		return errors.New("invalid hash format")
	}

	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return fmt.Errorf("invalid hash parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("invalid salt: %w", err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return fmt.Errorf("invalid hash: %w", err)
	}

	got := argon2.IDKey([]byte(candidate), salt, iters, mem, par, uint32(len(want)))
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return errors.New("password does not match")
	}
	return nil
}
