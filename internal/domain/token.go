package domain

import "time"

// TokenPair is what the session endpoints return: the short-lived access
// token (JWT) and the opaque refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"` // always "Bearer"
	ExpiresIn    int64  `json:"expires_in"` // seconds until access token expiry
}

// RefreshToken models the stored refresh token record. Only the id part of
// the presented token is stored in the clear; the full presented string is
// hashed with argon2 so a database leak reveals nothing redeemable.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenID   string // lookup key, the public part of the presented token
	TokenHash string // argon2 encoded hash of the full presented token
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
}
