package sqlite

import (
	"context"

	"github.com/copperline/streamgate/internal/domain"
)

type refreshTokensRepo struct {
	db dbtx
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_id, token_hash, issued_at, expires_at, revoked)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.TokenID, t.TokenHash, t.IssuedAt, t.ExpiresAt, t.Revoked)
	return mapUniqueViolation(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByTokenID(ctx context.Context, tokenID string) (domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token_id, token_hash, issued_at, expires_at, revoked
		 FROM refresh_tokens WHERE token_id = ?`, tokenID).
		Scan(&t.ID, &t.UserID, &t.TokenID, &t.TokenHash, &t.IssuedAt, &t.ExpiresAt, &t.Revoked)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	return t, nil
}

func (r *refreshTokensRepo) RevokeRefreshToken(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1 WHERE id = ?`, id)
	return err
}

func (r *refreshTokensRepo) RevokeAllUserRefreshTokens(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1 WHERE user_id = ? AND revoked = 0`, userID)
	return err
}
