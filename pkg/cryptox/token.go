package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Opaque refresh-token component sizes (bytes before encoding).
const (
	// RefreshTokenIDSize is the public lookup-key part (96 bits).
	RefreshTokenIDSize = 12
	// RefreshSecretSize is the proof part (256 bits).
	RefreshSecretSize = 32
)

// ErrMalformedToken reports a presented token without the "id.secret" shape.
var ErrMalformedToken = errors.New("cryptox: malformed refresh token")

// OpaqueToken is a freshly generated two-part refresh token. Presented is the
// only form that ever reaches the client, exactly once; the store keeps ID in
// the clear as an index key and a one-way hash of Presented.
type OpaqueToken struct {
	ID        string // base64url, no padding
	Presented string // ID + "." + secret
}

// NewOpaqueToken draws a random tokenId/secret pair and assembles the
// presented string. Splitting the lookup key from the proof lets the store
// find a candidate record without comparing secrets in scan order, and lets
// revocation be keyed without the original secret.
func NewOpaqueToken() (OpaqueToken, error) {
	id, err := randomURLToken(RefreshTokenIDSize)
	if err != nil {
		return OpaqueToken{}, err
	}
	secret, err := randomURLToken(RefreshSecretSize)
	if err != nil {
		return OpaqueToken{}, err
	}
	return OpaqueToken{
		ID:        id,
		Presented: id + "." + secret,
	}, nil
}

// SplitTokenID extracts the tokenId from a presented refresh token: the text
// before the first dot. Input with no separator, or nothing before it, is
// malformed.
func SplitTokenID(presented string) (string, error) {
	idx := strings.IndexByte(presented, '.')
	if idx <= 0 {
		return "", ErrMalformedToken
	}
	return presented[:idx], nil
}

// randomURLToken returns size random bytes as url-safe base64 without padding.
func randomURLToken(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
