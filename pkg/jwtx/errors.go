package jwtx

import "errors"

var (
	// ErrIssuer reports a token minted by a different issuer.
	ErrIssuer = errors.New("jwtx: issuer mismatch")

	// ErrExpired reports a token past its expiry.
	ErrExpired = errors.New("jwtx: token expired")

	// ErrInvalidToken covers every other verification failure. Callers
	// should surface all of these uniformly so token validity cannot be
	// probed.
	ErrInvalidToken = errors.New("jwtx: invalid token")
)
