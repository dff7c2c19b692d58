package sqlite

import (
	"context"
	"time"

	"github.com/copperline/streamgate/internal/domain"
	"github.com/copperline/streamgate/pkg/cryptox"
)

// upstreamAccountsRepo envelope-encrypts the credential columns on write and
// decrypts on read, so plaintext never touches disk.
type upstreamAccountsRepo struct {
	db  dbtx
	env *cryptox.Envelope
}

func (r *upstreamAccountsRepo) CreateUpstreamAccount(ctx context.Context, a domain.UpstreamAccount) error {
	usernameEnc, passwordEnc, err := r.encryptCredentials(a)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO upstream_accounts (id, user_id, name, api_url, username_enc, password_enc, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Name, a.APIURL, usernameEnc, passwordEnc, a.CreatedAt, a.UpdatedAt)
	return err
}

func (r *upstreamAccountsRepo) GetUpstreamAccountByID(ctx context.Context, id string) (domain.UpstreamAccount, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, api_url, username_enc, password_enc, created_at, updated_at
		 FROM upstream_accounts WHERE id = ?`, id)
	return r.scanAccount(row)
}

func (r *upstreamAccountsRepo) ListUpstreamAccountsByUser(ctx context.Context, userID string) ([]domain.UpstreamAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, api_url, username_enc, password_enc, created_at, updated_at
		 FROM upstream_accounts WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UpstreamAccount
	for rows.Next() {
		a, err := r.scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *upstreamAccountsRepo) UpdateUpstreamAccount(ctx context.Context, a domain.UpstreamAccount) error {
	usernameEnc, passwordEnc, err := r.encryptCredentials(a)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE upstream_accounts
		 SET name = ?, api_url = ?, username_enc = ?, password_enc = ?, updated_at = ?
		 WHERE id = ?`,
		a.Name, a.APIURL, usernameEnc, passwordEnc, time.Now().UTC(), a.ID)
	return err
}

func (r *upstreamAccountsRepo) DeleteUpstreamAccount(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM upstream_accounts WHERE id = ?`, id)
	return err
}

func (r *upstreamAccountsRepo) encryptCredentials(a domain.UpstreamAccount) (string, string, error) {
	usernameEnc, err := r.env.Encrypt(a.Username)
	if err != nil {
		return "", "", err
	}
	passwordEnc, err := r.env.Encrypt(a.Password)
	if err != nil {
		return "", "", err
	}
	return usernameEnc, passwordEnc, nil
}

func (r *upstreamAccountsRepo) scanAccount(row rowScanner) (domain.UpstreamAccount, error) {
	var a domain.UpstreamAccount
	var usernameEnc, passwordEnc string
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.APIURL,
		&usernameEnc, &passwordEnc, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return domain.UpstreamAccount{}, mapNotFound(err)
	}

	if a.Username, err = r.env.Decrypt(usernameEnc); err != nil {
		return domain.UpstreamAccount{}, err
	}
	if a.Password, err = r.env.Decrypt(passwordEnc); err != nil {
		return domain.UpstreamAccount{}, err
	}
	return a, nil
}
