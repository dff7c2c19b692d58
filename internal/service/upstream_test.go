package service

import (
	"context"
	"testing"

	"github.com/copperline/streamgate/internal/domain"
	"github.com/copperline/streamgate/pkg/idx"
	"github.com/stretchr/testify/require"
)

func seedUpstreamUser(t *testing.T, svc *UpstreamService, email string) domain.User {
	t.Helper()

	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: "hash",
		Roles:        []string{"user"},
	}
	require.NoError(t, svc.Store.Users().CreateUser(context.Background(), u))
	return u
}

func TestUpstreamCRUD(t *testing.T) {
	ctx := context.Background()
	svc := &UpstreamService{Store: newTestStore(t)}
	owner := seedUpstreamUser(t, svc, "alice@example.com")

	created, err := svc.Create(ctx, owner.ID, domain.UpstreamAccount{
		Name:     "living room",
		APIURL:   "https://iptv.example.com",
		Username: "alice-upstream",
		Password: "upstream-pass",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	// Credentials round-trip through the encrypted columns unchanged.
	got, err := svc.Get(ctx, owner.ID, created.ID)
	require.NoError(t, err)
	require.Equal(t, "alice-upstream", got.Username)
	require.Equal(t, "upstream-pass", got.Password)

	got.Name = "bedroom"
	got.Password = "rotated-pass"
	updated, err := svc.Update(ctx, owner.ID, got)
	require.NoError(t, err)
	require.Equal(t, "bedroom", updated.Name)
	require.Equal(t, "rotated-pass", updated.Password)

	list, err := svc.List(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, owner.ID, created.ID))
	_, err = svc.Get(ctx, owner.ID, created.ID)
	require.ErrorIs(t, err, ErrUpstreamNotFound)
}

func TestUpstreamOwnershipIsEnforced(t *testing.T) {
	ctx := context.Background()
	svc := &UpstreamService{Store: newTestStore(t)}
	owner := seedUpstreamUser(t, svc, "alice@example.com")
	other := seedUpstreamUser(t, svc, "mallory@example.com")

	created, err := svc.Create(ctx, owner.ID, domain.UpstreamAccount{
		Name:     "living room",
		APIURL:   "https://iptv.example.com",
		Username: "alice-upstream",
		Password: "upstream-pass",
	})
	require.NoError(t, err)

	// Another user's accounts read as not found, never as forbidden, so ids
	// cannot be probed.
	_, err = svc.Get(ctx, other.ID, created.ID)
	require.ErrorIs(t, err, ErrUpstreamNotFound)
	require.ErrorIs(t, svc.Delete(ctx, other.ID, created.ID), ErrUpstreamNotFound)

	list, err := svc.List(ctx, other.ID)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestUpstreamValidation(t *testing.T) {
	ctx := context.Background()
	svc := &UpstreamService{Store: newTestStore(t)}
	owner := seedUpstreamUser(t, svc, "alice@example.com")

	cases := []struct {
		name    string
		account domain.UpstreamAccount
	}{
		{"missing name", domain.UpstreamAccount{APIURL: "https://x.example", Username: "u", Password: "p"}},
		{"missing username", domain.UpstreamAccount{Name: "a", APIURL: "https://x.example", Password: "p"}},
		{"missing password", domain.UpstreamAccount{Name: "a", APIURL: "https://x.example", Username: "u"}},
		{"bad url", domain.UpstreamAccount{Name: "a", APIURL: "not a url", Username: "u", Password: "p"}},
		{"non-http scheme", domain.UpstreamAccount{Name: "a", APIURL: "ftp://x.example", Username: "u", Password: "p"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, owner.ID, tc.account)
			require.ErrorIs(t, err, ErrInvalidUpstreamRequest)
		})
	}
}
