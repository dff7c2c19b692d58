package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/copperline/streamgate/internal/domain"
)

type invitesRepo struct {
	db dbtx
}

func (r *invitesRepo) CreateInvite(ctx context.Context, inv domain.InviteCode) error {
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invite_codes (id, code, max_uses, uses, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.Code, inv.MaxUses, inv.Uses, mapOptionalTime(inv.ExpiresAt), inv.CreatedAt)
	return mapUniqueViolation(err)
}

func (r *invitesRepo) GetInviteByCode(ctx context.Context, code string) (domain.InviteCode, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, code, max_uses, uses, expires_at, created_at
		 FROM invite_codes WHERE code = ?`, code)
	return scanInvite(row)
}

func (r *invitesRepo) ListInvites(ctx context.Context) ([]domain.InviteCode, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, code, max_uses, uses, expires_at, created_at
		 FROM invite_codes ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.InviteCode
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// ConsumeInvite claims one use with a single conditional UPDATE so two racing
// consumers can never both take the last use. The affected-row count tells us
// whether the claim succeeded.
func (r *invitesRepo) ConsumeInvite(ctx context.Context, code string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invite_codes SET uses = uses + 1
		 WHERE code = ?
		   AND uses < max_uses
		   AND (expires_at IS NULL OR expires_at > ?)`,
		code, now.UTC())
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *invitesRepo) RevokeInvite(ctx context.Context, code string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE invite_codes SET max_uses = uses WHERE code = ?`, code)
	return err
}

func scanInvite(row rowScanner) (domain.InviteCode, error) {
	var inv domain.InviteCode
	var expiresAt sql.NullTime
	err := row.Scan(&inv.ID, &inv.Code, &inv.MaxUses, &inv.Uses, &expiresAt, &inv.CreatedAt)
	if err != nil {
		return domain.InviteCode{}, mapNotFound(err)
	}
	inv.ExpiresAt = mapNullTimePtr(expiresAt)
	return inv, nil
}
