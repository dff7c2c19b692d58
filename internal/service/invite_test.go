package service

import (
	"context"
	"testing"
	"time"

	"github.com/copperline/streamgate/internal/store"
	"github.com/stretchr/testify/require"
)

// consumeOnce wraps a single invite consumption in its own transaction, the
// way registration does.
func consumeOnce(ctx context.Context, svc *InviteService, code string) error {
	return svc.Store.WithTx(ctx, func(tx store.Tx) error {
		return svc.Consume(ctx, tx, code)
	})
}

func TestMintValidatesRequest(t *testing.T) {
	ctx := context.Background()
	svc := &InviteService{Store: newTestStore(t)}

	t.Run("rejects maxUses below one", func(t *testing.T) {
		_, err := svc.Mint(ctx, "", 0, nil)
		require.ErrorIs(t, err, ErrInvalidInviteRequest)
	})

	t.Run("rejects maxUses above the cap", func(t *testing.T) {
		_, err := svc.Mint(ctx, "", MaxInviteUses+1, nil)
		require.ErrorIs(t, err, ErrInvalidInviteRequest)
	})

	t.Run("rejects past expiry", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		_, err := svc.Mint(ctx, "", 1, &past)
		require.ErrorIs(t, err, ErrInvalidInviteRequest)
	})

	t.Run("generates a code when none given", func(t *testing.T) {
		inv, err := svc.Mint(ctx, "", 5, nil)
		require.NoError(t, err)
		require.Len(t, inv.Code, 32)
		require.Equal(t, 5, inv.MaxUses)
		require.Zero(t, inv.Uses)
	})

	t.Run("keeps a custom code", func(t *testing.T) {
		inv, err := svc.Mint(ctx, "ABC123", 1, nil)
		require.NoError(t, err)
		require.Equal(t, "ABC123", inv.Code)
	})

	t.Run("rejects a duplicate custom code", func(t *testing.T) {
		_, err := svc.Mint(ctx, "DUPLICATE", 1, nil)
		require.NoError(t, err)

		_, err = svc.Mint(ctx, "DUPLICATE", 1, nil)
		require.ErrorIs(t, err, ErrInviteCodeTaken)
	})
}

func TestConsumeLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := &InviteService{Store: newTestStore(t)}

	inv, err := svc.Mint(ctx, "", 2, nil)
	require.NoError(t, err)

	require.NoError(t, consumeOnce(ctx, svc, inv.Code))
	require.NoError(t, consumeOnce(ctx, svc, inv.Code))

	// Third consumer finds the code exhausted.
	require.ErrorIs(t, consumeOnce(ctx, svc, inv.Code), ErrInviteExhausted)

	got, err := svc.Store.Invites().GetInviteByCode(ctx, inv.Code)
	require.NoError(t, err)
	require.Equal(t, 2, got.Uses)
}

func TestConsumeUnknownCode(t *testing.T) {
	ctx := context.Background()
	svc := &InviteService{Store: newTestStore(t)}

	require.ErrorIs(t, consumeOnce(ctx, svc, "no-such-code"), ErrInviteNotFound)
}

func TestConsumeExpiredCode(t *testing.T) {
	ctx := context.Background()
	svc := &InviteService{Store: newTestStore(t)}

	inv, err := svc.Mint(ctx, "", 1, ptrTime(time.Now().Add(50*time.Millisecond)))
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	require.ErrorIs(t, consumeOnce(ctx, svc, inv.Code), ErrInviteExpired)
}

func TestRevokeClampsMaxUses(t *testing.T) {
	ctx := context.Background()
	svc := &InviteService{Store: newTestStore(t)}

	inv, err := svc.Mint(ctx, "", 5, nil)
	require.NoError(t, err)

	for range 3 {
		require.NoError(t, consumeOnce(ctx, svc, inv.Code))
	}

	require.NoError(t, svc.Revoke(ctx, inv.Code))

	got, err := svc.Store.Invites().GetInviteByCode(ctx, inv.Code)
	require.NoError(t, err)
	require.Equal(t, 3, got.MaxUses)
	require.Equal(t, 3, got.Uses)

	// Clamped means no further consumption, ever.
	require.ErrorIs(t, consumeOnce(ctx, svc, inv.Code), ErrInviteExhausted)
}

func TestRevokeUnknownCode(t *testing.T) {
	ctx := context.Background()
	svc := &InviteService{Store: newTestStore(t)}

	require.ErrorIs(t, svc.Revoke(ctx, "no-such-code"), ErrInviteNotFound)
}

func TestListReturnsMintedInvites(t *testing.T) {
	ctx := context.Background()
	svc := &InviteService{Store: newTestStore(t)}

	_, err := svc.Mint(ctx, "first", 1, nil)
	require.NoError(t, err)
	_, err = svc.Mint(ctx, "second", 1, nil)
	require.NoError(t, err)

	invites, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, invites, 2)
}

func ptrTime(t time.Time) *time.Time { return &t }
