package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/copperline/streamgate/internal/domain"
	"github.com/copperline/streamgate/internal/store"
	"github.com/copperline/streamgate/pkg/cryptox"
	"github.com/copperline/streamgate/pkg/idx"
	"github.com/copperline/streamgate/pkg/jwtx"
	"github.com/copperline/streamgate/pkg/slogx"
)

var (
	ErrRefreshMalformed = errors.New("malformed_refresh_token")
	ErrRefreshInvalid   = errors.New("invalid_refresh_token")
	ErrRefreshRevoked   = errors.New("revoked_refresh_token")
	ErrRefreshExpired   = errors.New("expired_refresh_token")
)

// TokenService issues access/refresh token pairs and drives the refresh
// rotation protocol. The RSA signer and TTLs are fixed at construction.
type TokenService struct {
	Signer     *jwtx.Signer
	Store      store.Store
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// IssueAccessToken builds and signs the short-lived JWT for a user.
func (s *TokenService) IssueAccessToken(u domain.User, now time.Time) (string, error) {
	claims := jwtx.NewAccessClaims(u.ID, u.Email, u.Roles, s.Issuer, s.AccessTTL, now)
	return s.Signer.Sign(claims)
}

// IssuePair signs an access token and persists a fresh refresh token record
// through the given repos, which may be transaction-scoped. The presented
// refresh string is returned exactly once and is never retrievable again;
// only its argon2 hash touches the database.
func (s *TokenService) IssuePair(ctx context.Context, repos store.Store, u domain.User, now time.Time) (*domain.TokenPair, error) {
	accessToken, err := s.IssueAccessToken(u, now)
	if err != nil {
		return nil, err
	}

	opaque, err := cryptox.NewOpaqueToken()
	if err != nil {
		return nil, err
	}
	tokenHash, err := cryptox.HashSecret(opaque.Presented)
	if err != nil {
		return nil, err
	}

	record := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    u.ID,
		TokenID:   opaque.ID,
		TokenHash: tokenHash,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.RefreshTTL),
		Revoked:   false,
	}
	if err := repos.RefreshTokens().CreateRefreshToken(ctx, record); err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: opaque.Presented,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.AccessTTL.Seconds()),
	}, nil
}

// Rotate redeems a presented refresh token for a new pair. Rotation is
// single-use: the old record is revoked and a new one created in the same
// transaction, so presenting the old token again always fails and a crash
// mid-rotation never leaves two live tokens for one lineage.
func (s *TokenService) Rotate(ctx context.Context, presented string) (*domain.TokenPair, error) {
	now := time.Now().UTC()
	log := slogx.FromContext(ctx)

	// 1. Extract the public lookup key; the secret half is never parsed.
	tokenID, err := cryptox.SplitTokenID(presented)
	if err != nil {
		return nil, ErrRefreshMalformed
	}

	var result *domain.TokenPair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		// 2. Look up the candidate record by tokenId.
		rt, err := tx.RefreshTokens().GetRefreshTokenByTokenID(ctx, tokenID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrRefreshInvalid
			}
			return err
		}

		// 3. Replay of an already-rotated token is always rejected.
		if rt.Revoked {
			log.Warn("revoked refresh token presented",
				slog.String("token_id", tokenID),
				slog.String("user_id", rt.UserID),
			)
			return ErrRefreshRevoked
		}
		if now.After(rt.ExpiresAt) {
			return ErrRefreshExpired
		}

		// 4. Prove possession of the secret half against the stored hash.
		if err := cryptox.VerifySecret(presented, rt.TokenHash); err != nil {
			return ErrRefreshInvalid
		}

		u, err := tx.Users().GetUserByID(ctx, rt.UserID)
		if err != nil {
			return err
		}

		// 5. Revoke old and create new atomically.
		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, rt.ID); err != nil {
			return err
		}
		result, err = s.IssuePair(ctx, tx, u, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Revoke invalidates the record behind a presented refresh token. It is
// idempotent and best-effort: a missing, malformed or already-revoked token
// is not an error, only a failure to prove possession of a live secret is
// logged. Used by logout.
func (s *TokenService) Revoke(ctx context.Context, presented string) error {
	log := slogx.FromContext(ctx)

	tokenID, err := cryptox.SplitTokenID(presented)
	if err != nil {
		return nil
	}

	rt, err := s.Store.RefreshTokens().GetRefreshTokenByTokenID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if rt.Revoked {
		return nil
	}
	if err := cryptox.VerifySecret(presented, rt.TokenHash); err != nil {
		log.Warn("logout presented a refresh token with a bad secret",
			slog.String("token_id", tokenID),
		)
		return nil
	}

	return s.Store.RefreshTokens().RevokeRefreshToken(ctx, rt.ID)
}

// RevokeAll invalidates every refresh token a user holds. Used for mass
// session invalidation (e.g., suspected compromise or password reset).
func (s *TokenService) RevokeAll(ctx context.Context, userID string) error {
	return s.Store.RefreshTokens().RevokeAllUserRefreshTokens(ctx, userID)
}
