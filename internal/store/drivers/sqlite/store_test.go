package sqlite

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/copperline/streamgate/internal/domain"
	"github.com/copperline/streamgate/internal/store"
	"github.com/copperline/streamgate/pkg/cryptox"
	"github.com/copperline/streamgate/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	env, err := cryptox.NewEnvelope(bytes.Repeat([]byte{0x24}, cryptox.MasterKeySize))
	require.NoError(t, err)

	st, err := NewStore(":memory:", env)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedUser(t *testing.T, st *Store, email string) domain.User {
	t.Helper()

	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: "argon2:dummy",
		Roles:        []string{"user", "admin"},
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.ApplyMigrations())
}

func TestUsersRepo(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	empty, err := st.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	u := seedUser(t, st, "alice@example.com")

	t.Run("round trips the role set", func(t *testing.T) {
		got, err := st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, []string{"user", "admin"}, got.Roles)
		require.False(t, got.CreatedAt.IsZero())
	})

	t.Run("email lookup ignores case", func(t *testing.T) {
		got, err := st.Users().GetUserByEmail(ctx, "ALICE@EXAMPLE.COM")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
	})

	t.Run("duplicate email maps to ErrAlreadyExists", func(t *testing.T) {
		dup := domain.User{ID: idx.New().String(), Email: "alice@example.com", PasswordHash: "x"}
		require.ErrorIs(t, st.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("missing user maps to ErrNotFound", func(t *testing.T) {
		_, err := st.Users().GetUserByID(ctx, "nope")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete cascades", func(t *testing.T) {
		require.NoError(t, st.Users().DeleteUser(ctx, u.ID))
		_, err := st.Users().GetUserByID(ctx, u.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestRefreshTokensRepo(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	u := seedUser(t, st, "alice@example.com")

	now := time.Now().UTC()
	rt := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    u.ID,
		TokenID:   "tok-1",
		TokenHash: "argon2:dummy",
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, st.RefreshTokens().CreateRefreshToken(ctx, rt))

	t.Run("lookup by tokenId", func(t *testing.T) {
		got, err := st.RefreshTokens().GetRefreshTokenByTokenID(ctx, "tok-1")
		require.NoError(t, err)
		require.Equal(t, rt.ID, got.ID)
		require.False(t, got.Revoked)
	})

	t.Run("tokenId is unique", func(t *testing.T) {
		dup := rt
		dup.ID = idx.New().String()
		require.ErrorIs(t, st.RefreshTokens().CreateRefreshToken(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("revoke flips the flag but keeps the row", func(t *testing.T) {
		require.NoError(t, st.RefreshTokens().RevokeRefreshToken(ctx, rt.ID))
		got, err := st.RefreshTokens().GetRefreshTokenByTokenID(ctx, "tok-1")
		require.NoError(t, err)
		require.True(t, got.Revoked)
	})

	t.Run("revoke all for a user", func(t *testing.T) {
		second := domain.RefreshToken{
			ID: idx.New().String(), UserID: u.ID, TokenID: "tok-2",
			TokenHash: "h", IssuedAt: now, ExpiresAt: now.Add(time.Hour),
		}
		require.NoError(t, st.RefreshTokens().CreateRefreshToken(ctx, second))
		require.NoError(t, st.RefreshTokens().RevokeAllUserRefreshTokens(ctx, u.ID))

		got, err := st.RefreshTokens().GetRefreshTokenByTokenID(ctx, "tok-2")
		require.NoError(t, err)
		require.True(t, got.Revoked)
	})
}

func TestInvitesRepoConditionalConsume(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	now := time.Now().UTC()

	inv := domain.InviteCode{ID: idx.New().String(), Code: "ABC123", MaxUses: 2}
	require.NoError(t, st.Invites().CreateInvite(ctx, inv))

	claimed, err := st.Invites().ConsumeInvite(ctx, "ABC123", now)
	require.NoError(t, err)
	require.True(t, claimed)

	claimed, err = st.Invites().ConsumeInvite(ctx, "ABC123", now)
	require.NoError(t, err)
	require.True(t, claimed)

	// Capacity reached: the conditional update matches no row.
	claimed, err = st.Invites().ConsumeInvite(ctx, "ABC123", now)
	require.NoError(t, err)
	require.False(t, claimed)

	got, err := st.Invites().GetInviteByCode(ctx, "ABC123")
	require.NoError(t, err)
	require.Equal(t, 2, got.Uses)

	t.Run("expired codes are not consumable", func(t *testing.T) {
		past := now.Add(-time.Minute)
		expired := domain.InviteCode{ID: idx.New().String(), Code: "OLD", MaxUses: 5, ExpiresAt: &past}
		require.NoError(t, st.Invites().CreateInvite(ctx, expired))

		claimed, err := st.Invites().ConsumeInvite(ctx, "OLD", now)
		require.NoError(t, err)
		require.False(t, claimed)
	})

	t.Run("expiry comparison is offset-independent", func(t *testing.T) {
		// Expired two hours ago, expressed in a far-east zone whose offset
		// text would sort after a UTC "now" if stored verbatim.
		east := time.FixedZone("UTC+14", 14*60*60)
		past := now.Add(-2 * time.Hour).In(east)
		expired := domain.InviteCode{ID: idx.New().String(), Code: "EAST", MaxUses: 5, ExpiresAt: &past}
		require.NoError(t, st.Invites().CreateInvite(ctx, expired))

		claimed, err := st.Invites().ConsumeInvite(ctx, "EAST", now)
		require.NoError(t, err)
		require.False(t, claimed)

		// And a still-valid invite expressed west of UTC reads as live even
		// when the caller's clock carries an offset too.
		west := time.FixedZone("UTC-11", -11*60*60)
		future := now.Add(2 * time.Hour).In(west)
		live := domain.InviteCode{ID: idx.New().String(), Code: "WEST", MaxUses: 5, ExpiresAt: &future}
		require.NoError(t, st.Invites().CreateInvite(ctx, live))

		claimed, err = st.Invites().ConsumeInvite(ctx, "WEST", now.In(east))
		require.NoError(t, err)
		require.True(t, claimed)
	})

	t.Run("revoke clamps max_uses to uses", func(t *testing.T) {
		require.NoError(t, st.Invites().RevokeInvite(ctx, "ABC123"))
		got, err := st.Invites().GetInviteByCode(ctx, "ABC123")
		require.NoError(t, err)
		require.Equal(t, got.Uses, got.MaxUses)
	})
}

func TestUpstreamAccountsEncryptedAtRest(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	u := seedUser(t, st, "alice@example.com")

	a := domain.UpstreamAccount{
		ID:       idx.New().String(),
		UserID:   u.ID,
		Name:     "living room",
		APIURL:   "https://iptv.example.com",
		Username: "upstream-user",
		Password: "upstream-pass",
	}
	require.NoError(t, st.UpstreamAccounts().CreateUpstreamAccount(ctx, a))

	// The raw columns hold envelopes, never the plaintext.
	var usernameEnc, passwordEnc string
	require.NoError(t, st.db.QueryRowContext(ctx,
		`SELECT username_enc, password_enc FROM upstream_accounts WHERE id = ?`, a.ID).
		Scan(&usernameEnc, &passwordEnc))
	require.NotContains(t, usernameEnc, "upstream-user")
	require.NotContains(t, passwordEnc, "upstream-pass")
	require.NotEqual(t, usernameEnc, passwordEnc)

	// Reads transparently decrypt.
	got, err := st.UpstreamAccounts().GetUpstreamAccountByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "upstream-user", got.Username)
	require.Equal(t, "upstream-pass", got.Password)

	// A store with a different key cannot decrypt the rows.
	otherEnv, err := cryptox.NewEnvelope(bytes.Repeat([]byte{0x99}, cryptox.MasterKeySize))
	require.NoError(t, err)
	foreign := &upstreamAccountsRepo{db: st.db, env: otherEnv}
	_, err = foreign.GetUpstreamAccountByID(ctx, a.ID)
	require.ErrorIs(t, err, cryptox.ErrAuthenticationFailed)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	boom := context.Canceled
	err := st.WithTx(ctx, func(tx store.Tx) error {
		u := domain.User{ID: idx.New().String(), Email: "tx@example.com", PasswordHash: "x"}
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = st.Users().GetUserByEmail(ctx, "tx@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}
