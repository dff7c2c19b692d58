package service

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/copperline/streamgate/internal/store"
	"github.com/copperline/streamgate/internal/store/drivers/sqlite"
	"github.com/copperline/streamgate/pkg/cryptox"
	"github.com/copperline/streamgate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	env, err := cryptox.NewEnvelope(bytes.Repeat([]byte{0x42}, cryptox.MasterKeySize))
	require.NoError(t, err)

	st, err := sqlite.NewStore(":memory:", env)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newFileTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	env, err := cryptox.NewEnvelope(bytes.Repeat([]byte{0x42}, cryptox.MasterKeySize))
	require.NoError(t, err)

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "streamgate.db"), env)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestSigner(t *testing.T) *jwtx.Signer {
	t.Helper()

	pemKey, err := cryptox.GenerateRSAKey(2048)
	require.NoError(t, err)
	key, err := cryptox.ParseRSAPrivateKeyPEM(pemKey)
	require.NoError(t, err)
	signer, err := jwtx.NewSigner(key)
	require.NoError(t, err)
	return signer
}

func newTestTokenService(t *testing.T, st store.Store) *TokenService {
	t.Helper()

	return &TokenService{
		Signer:     newTestSigner(t),
		Store:      st,
		Issuer:     "test-issuer",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}
}

func newTestAuthService(t *testing.T, st store.Store) *AuthService {
	t.Helper()

	return &AuthService{
		Store:   st,
		Tokens:  newTestTokenService(t, st),
		Invites: &InviteService{Store: st},
	}
}
