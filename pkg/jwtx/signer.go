package jwtx

import (
	"crypto/rsa"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Signer signs access-token claims with a single RS256 private key. The key
// is loaded once at startup and the Signer is shared read-only after that.
type Signer struct {
	key *rsa.PrivateKey
}

// NewSigner wraps an already-parsed RSA private key.
func NewSigner(key *rsa.PrivateKey) (*Signer, error) {
	if key == nil {
		return nil, errors.New("jwtx: nil RSA private key")
	}
	return &Signer{key: key}, nil
}

// Sign turns claims into a signed compact JWT string.
func (s *Signer) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.key)
}

// PublicKey returns the verification half of the signing key.
func (s *Signer) PublicKey() *rsa.PublicKey {
	return &s.key.PublicKey
}
