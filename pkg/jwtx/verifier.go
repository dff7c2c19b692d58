package jwtx

import (
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates RS256 access tokens against the single public trust
// anchor. Wrong issuer, expiry, and bad signatures all come back as
// ErrInvalidToken so callers cannot distinguish why a token was rejected.
type Verifier struct {
	pub    *rsa.PublicKey
	issuer string
}

// NewVerifier creates a verifier for tokens minted by issuer.
func NewVerifier(pub *rsa.PublicKey, issuer string) (*Verifier, error) {
	if pub == nil {
		return nil, errors.New("jwtx: nil RSA public key")
	}
	return &Verifier{pub: pub, issuer: issuer}, nil
}

// Verify validates the JWT string and returns its parsed claims.
func (v *Verifier) Verify(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return v.pub, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if err := claims.ValidateExpiry(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return claims, nil
}
