package sqlite

import (
	"context"
	"database/sql"

	"github.com/copperline/streamgate/internal/store"
	"github.com/copperline/streamgate/pkg/cryptox"
)

type txStore struct {
	tx  *sql.Tx
	env *cryptox.Envelope
}

func newTx(tx *sql.Tx, env *cryptox.Envelope) *txStore {
	return &txStore{tx: tx, env: env}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // caller will commit/rollback and the outer DB stays open

// Ping is a no-op for transactions; the connection already exists.
func (t *txStore) Ping(ctx context.Context) error {
	return nil
}

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return sql.ErrTxDone
}

func (t *txStore) Users() store.Users                 { return &usersRepo{db: t.tx} }
func (t *txStore) RefreshTokens() store.RefreshTokens { return &refreshTokensRepo{db: t.tx} }
func (t *txStore) Invites() store.Invites             { return &invitesRepo{db: t.tx} }
func (t *txStore) UpstreamAccounts() store.UpstreamAccounts {
	return &upstreamAccountsRepo{db: t.tx, env: t.env}
}

func (t *txStore) ApplyMigrations() error { return nil } // no-op; migrations are applied before any tx starts
