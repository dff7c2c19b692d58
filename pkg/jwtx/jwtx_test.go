package jwtx

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestSignAndVerify(t *testing.T) {
	t.Parallel()

	key := testKey(t)
	signer, err := NewSigner(key)
	require.NoError(t, err)
	verifier, err := NewVerifier(signer.PublicKey(), "streamgate")
	require.NoError(t, err)

	now := time.Now()
	claims := NewAccessClaims(
		"01JABCDEF0123456789ABCDEFG",
		"alice@example.com",
		[]string{"user", "admin"},
		"streamgate",
		15*time.Minute,
		now,
	)

	tokenStr, err := signer.Sign(claims)
	require.NoError(t, err)

	parsed, err := verifier.Verify(tokenStr)
	require.NoError(t, err)
	require.Equal(t, "01JABCDEF0123456789ABCDEFG", parsed.Subject)
	require.Equal(t, "alice@example.com", parsed.Email)
	require.Equal(t, []string{"user", "admin"}, parsed.Roles)
	require.True(t, parsed.HasRole("admin"))
	require.False(t, parsed.HasRole("root"))
	require.WithinDuration(t, now.Add(15*time.Minute), parsed.ExpiresAt.Time, 2*time.Second)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	signer, err := NewSigner(testKey(t))
	require.NoError(t, err)
	verifier, err := NewVerifier(signer.PublicKey(), "streamgate")
	require.NoError(t, err)

	claims := NewAccessClaims("sub", "a@b.c", []string{"user"}, "someone-else", time.Minute, time.Now())
	tokenStr, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = verifier.Verify(tokenStr)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
	t.Parallel()

	signer, err := NewSigner(testKey(t))
	require.NoError(t, err)
	verifier, err := NewVerifier(signer.PublicKey(), "streamgate")
	require.NoError(t, err)

	claims := NewAccessClaims("sub", "a@b.c", []string{"user"}, "streamgate", time.Minute, time.Now().Add(-time.Hour))
	tokenStr, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = verifier.Verify(tokenStr)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	t.Parallel()

	signer, err := NewSigner(testKey(t))
	require.NoError(t, err)

	otherSigner, err := NewSigner(testKey(t))
	require.NoError(t, err)
	verifier, err := NewVerifier(otherSigner.PublicKey(), "streamgate")
	require.NoError(t, err)

	claims := NewAccessClaims("sub", "a@b.c", []string{"user"}, "streamgate", time.Minute, time.Now())
	tokenStr, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = verifier.Verify(tokenStr)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = verifier.Verify("not.a.jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}
