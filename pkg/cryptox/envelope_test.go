package cryptox

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func testEnvelope(t *testing.T) *Envelope {
	t.Helper()

	key := make([]byte, MasterKeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)

	env, err := NewEnvelope(key)
	require.NoError(t, err)
	return env
}

func TestEnvelopeRoundTrip(t *testing.T) {
	t.Parallel()
	env := testEnvelope(t)

	for _, plaintext := range []string{
		"",
		"p",
		"upstream-password-123",
		"unicode: héllo wörld ☃",
		string(bytes.Repeat([]byte("x"), 4096)),
	} {
		sealed, err := env.Encrypt(plaintext)
		require.NoError(t, err)

		opened, err := env.Decrypt(sealed)
		require.NoError(t, err)
		require.Equal(t, plaintext, opened)
	}
}

func TestEnvelopeWireFormat(t *testing.T) {
	t.Parallel()
	env := testEnvelope(t)

	sealed, err := env.Encrypt("secret")
	require.NoError(t, err)

	packed, err := base64.StdEncoding.DecodeString(sealed)
	require.NoError(t, err)

	// [1-byte version][12-byte nonce][ciphertext||16-byte tag]
	require.Equal(t, EnvelopeVersion, packed[0])
	require.Len(t, packed, 1+12+len("secret")+16)
}

func TestEnvelopeNonceUniqueness(t *testing.T) {
	t.Parallel()
	env := testEnvelope(t)

	seen := make(map[string]struct{})
	for range 64 {
		sealed, err := env.Encrypt("same plaintext")
		require.NoError(t, err)
		_, dup := seen[sealed]
		require.False(t, dup, "two envelopes of the same plaintext must never share bytes")
		seen[sealed] = struct{}{}
	}
}

func TestEnvelopeTamperDetection(t *testing.T) {
	t.Parallel()
	env := testEnvelope(t)

	sealed, err := env.Encrypt("tamper me")
	require.NoError(t, err)

	packed, err := base64.StdEncoding.DecodeString(sealed)
	require.NoError(t, err)

	// Flip one bit at every position past the version byte: nonce,
	// ciphertext, and tag corruption must all surface as authentication
	// failure, never as corrupted plaintext.
	for i := 1; i < len(packed); i++ {
		corrupted := make([]byte, len(packed))
		copy(corrupted, packed)
		corrupted[i] ^= 0x01

		_, err := env.Decrypt(base64.StdEncoding.EncodeToString(corrupted))
		require.ErrorIs(t, err, ErrAuthenticationFailed, "bit flip at offset %d", i)
	}
}

func TestEnvelopeUnsupportedVersion(t *testing.T) {
	t.Parallel()
	env := testEnvelope(t)

	sealed, err := env.Encrypt("versioned")
	require.NoError(t, err)

	packed, err := base64.StdEncoding.DecodeString(sealed)
	require.NoError(t, err)
	packed[0] = 0x02

	_, err = env.Decrypt(base64.StdEncoding.EncodeToString(packed))
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestEnvelopeWrongKey(t *testing.T) {
	t.Parallel()

	sealed, err := testEnvelope(t).Encrypt("cross-key")
	require.NoError(t, err)

	_, err = testEnvelope(t).Decrypt(sealed)
	require.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestEnvelopeOptionalPassthrough(t *testing.T) {
	t.Parallel()
	env := testEnvelope(t)

	sealed, err := env.EncryptOptional(nil)
	require.NoError(t, err)
	require.Nil(t, sealed)

	opened, err := env.DecryptOptional(nil)
	require.NoError(t, err)
	require.Nil(t, opened)

	value := "present"
	sealed, err = env.EncryptOptional(&value)
	require.NoError(t, err)
	require.NotNil(t, sealed)
	require.NotEqual(t, value, *sealed)

	opened, err = env.DecryptOptional(sealed)
	require.NoError(t, err)
	require.Equal(t, value, *opened)
}

func TestNewEnvelopeRejectsBadKeys(t *testing.T) {
	t.Parallel()

	_, err := NewEnvelope(make([]byte, 16))
	require.Error(t, err)

	_, err = NewEnvelopeFromBase64("not-base64!!!")
	require.Error(t, err)

	b64, err := GenerateMasterKey()
	require.NoError(t, err)
	_, err = NewEnvelopeFromBase64(b64)
	require.NoError(t, err)
}
