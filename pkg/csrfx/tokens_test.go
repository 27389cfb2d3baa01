package csrfx_test

import (
	"strings"
	"testing"

	"github.com/quollhq/authedge/pkg/cryptox"
	"github.com/quollhq/authedge/pkg/csrfx"
	"github.com/stretchr/testify/require"
)

func TestSecretShape(t *testing.T) {
	var tokens csrfx.Tokens

	secret, err := tokens.Secret()
	require.NoError(t, err)
	require.Len(t, secret, 24) // 18 bytes base64url

	other, err := tokens.Secret()
	require.NoError(t, err)
	require.NotEqual(t, secret, other)
}

func TestCreateVerify(t *testing.T) {
	var tokens csrfx.Tokens

	secret, err := tokens.Secret()
	require.NoError(t, err)

	token, err := tokens.Create(secret)
	require.NoError(t, err)
	require.True(t, strings.Contains(token, "-"), "salt-hash separator present")
	require.True(t, tokens.Verify(secret, token))

	// Fresh salts give distinct tokens that all verify.
	again, err := tokens.Create(secret)
	require.NoError(t, err)
	require.NotEqual(t, token, again)
	require.True(t, tokens.Verify(secret, again))
}

func TestVerifyRejects(t *testing.T) {
	var tokens csrfx.Tokens

	secret, err := tokens.Secret()
	require.NoError(t, err)
	otherSecret, err := tokens.Secret()
	require.NoError(t, err)

	token, err := tokens.Create(secret)
	require.NoError(t, err)

	require.False(t, tokens.Verify(otherSecret, token), "wrong secret")
	require.False(t, tokens.Verify(secret, ""), "empty token")
	require.False(t, tokens.Verify("", token), "empty secret")
	require.False(t, tokens.Verify(secret, "nodasheshere"), "no separator")
	require.False(t, tokens.Verify(secret, token+"x"), "tampered token")
}

func TestSignerRoundTrip(t *testing.T) {
	pemKey, err := cryptox.GenerateSigningKey()
	require.NoError(t, err)
	signer, err := csrfx.NewSignerFromPEM(pemKey)
	require.NoError(t, err)

	sig, err := signer.Sign("some-token")
	require.NoError(t, err)

	require.NoError(t, signer.Verify("some-token", sig))
	require.ErrorIs(t, signer.Verify("other-token", sig), csrfx.ErrBadSignature)
	require.ErrorIs(t, signer.Verify("some-token", "!!not-base64!!"), csrfx.ErrBadSignature)
}

func TestSignerKeysDiffer(t *testing.T) {
	pemA, err := cryptox.GenerateSigningKey()
	require.NoError(t, err)
	signerA, err := csrfx.NewSignerFromPEM(pemA)
	require.NoError(t, err)

	pemB, err := cryptox.GenerateSigningKey()
	require.NoError(t, err)
	signerB, err := csrfx.NewSignerFromPEM(pemB)
	require.NoError(t, err)

	sig, err := signerA.Sign("some-token")
	require.NoError(t, err)
	require.ErrorIs(t, signerB.Verify("some-token", sig), csrfx.ErrBadSignature)
}
