package store

import (
	"context"
	"errors"
	"time"

	"github.com/copperline/streamgate/internal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and keeps transaction scoping explicit so callers cannot
// accidentally nest transactions.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens
	Invites() Invites
	UpstreamAccounts() UpstreamAccounts

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// Use it for multi-step operations that must be atomic (e.g., refresh
	// rotation). The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists if the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// DeleteUser cascades to refresh_tokens and upstream_accounts (per schema).
	DeleteUser(ctx context.Context, userID string) error

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByTokenID returns the record matching the public id part
	// of a presented token, revoked or not.
	GetRefreshTokenByTokenID(ctx context.Context, tokenID string) (domain.RefreshToken, error)

	// RevokeRefreshToken flips revoked=1 for a record id.
	RevokeRefreshToken(ctx context.Context, id string) error

	// RevokeAllUserRefreshTokens bulk revocation for a user (e.g., password
	// reset). Records are never physically deleted; the table is an
	// append-only audit trail of every lineage.
	RevokeAllUserRefreshTokens(ctx context.Context, userID string) error
}

type Invites interface {
	// CreateInvite writes a new invite code.
	CreateInvite(ctx context.Context, inv domain.InviteCode) error

	// GetInviteByCode returns an invite regardless of its remaining uses.
	GetInviteByCode(ctx context.Context, code string) (domain.InviteCode, error)

	// ListInvites returns all invites ordered by creation date (newest first).
	ListInvites(ctx context.Context) ([]domain.InviteCode, error)

	// ConsumeInvite atomically increments uses if the code still has capacity
	// and has not expired at the given instant. Returns true when a use was
	// claimed; false means the code was missing, exhausted or expired.
	ConsumeInvite(ctx context.Context, code string, now time.Time) (bool, error)

	// RevokeInvite clamps max_uses down to uses so the code cannot be
	// consumed again.
	RevokeInvite(ctx context.Context, code string) error
}

type UpstreamAccounts interface {
	// CreateUpstreamAccount inserts a new account with credentials encrypted
	// by the driver.
	CreateUpstreamAccount(ctx context.Context, a domain.UpstreamAccount) error

	// GetUpstreamAccountByID returns one account with decrypted credentials.
	GetUpstreamAccountByID(ctx context.Context, id string) (domain.UpstreamAccount, error)

	// ListUpstreamAccountsByUser returns all of a user's accounts, newest first.
	ListUpstreamAccountsByUser(ctx context.Context, userID string) ([]domain.UpstreamAccount, error)

	// UpdateUpstreamAccount rewrites name, api_url and credentials.
	UpdateUpstreamAccount(ctx context.Context, a domain.UpstreamAccount) error

	// DeleteUpstreamAccount removes one account.
	DeleteUpstreamAccount(ctx context.Context, id string) error
}
