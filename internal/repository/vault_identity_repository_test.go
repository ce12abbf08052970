package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opspanel/panelapi/internal/identity"
	"github.com/opspanel/panelapi/internal/vault"
)

func newTestRepos(t *testing.T) (*VaultIdentityRepository, *VaultPreferenceRepository, *VaultSessionRepository) {
	t.Helper()
	v, err := vault.NewFileVault(t.TempDir(), "test-secret")
	require.NoError(t, err)
	return NewVaultIdentityRepository(v), NewVaultPreferenceRepository(v), NewVaultSessionRepository(v)
}

func makeIdentity(id, username string, role identity.Role) *identity.Identity {
	now := time.Now().UTC()
	return &identity.Identity{
		ID:        id,
		Username:  username,
		Role:      role,
		Status:    identity.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestIdentityRepositorySaveAndGet(t *testing.T) {
	ctx := context.Background()
	identities, _, _ := newTestRepos(t)

	alice := makeIdentity("id-1", "alice", identity.RoleAdmin)
	require.NoError(t, identities.Save(ctx, alice))

	got, err := identities.GetByKey(ctx, "alice-admin")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, identity.RoleAdmin, got.Role)
}

func TestIdentityRepositoryFindScans(t *testing.T) {
	ctx := context.Background()
	identities, _, _ := newTestRepos(t)

	require.NoError(t, identities.Save(ctx, makeIdentity("id-1", "alice", identity.RoleAdmin)))
	require.NoError(t, identities.Save(ctx, makeIdentity("id-2", "bob", identity.RoleCustom)))

	byID, err := identities.FindByID(ctx, "id-2")
	require.NoError(t, err)
	assert.Equal(t, "bob", byID.Username)

	byName, err := identities.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "id-1", byName.ID)

	// Username matching is case-sensitive.
	_, err = identities.FindByUsername(ctx, "Alice")
	assert.ErrorIs(t, err, vault.ErrNotFound)

	_, err = identities.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, vault.ErrNotFound)
}

func TestIdentityRepositoryListNonOwner(t *testing.T) {
	ctx := context.Background()
	identities, _, _ := newTestRepos(t)

	owner := makeIdentity(identity.OwnerID, "root", identity.RoleOwner)
	require.NoError(t, identities.Save(ctx, owner))
	require.NoError(t, identities.Save(ctx, makeIdentity("id-1", "alice", identity.RoleAdmin)))

	list, err := identities.ListNonOwner(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0].Username)

	// The owner is still reachable by id.
	got, err := identities.FindByID(ctx, identity.OwnerID)
	require.NoError(t, err)
	assert.True(t, got.IsOwner())
}

func TestPreferenceRepositoryRename(t *testing.T) {
	ctx := context.Background()
	_, prefs, _ := newTestRepos(t)

	require.NoError(t, prefs.Save(ctx, "alice-admin", identity.DefaultPreferences()))
	require.NoError(t, prefs.Rename(ctx, "alice-admin", "alice2-custom"))

	_, err := prefs.Get(ctx, "alice-admin")
	assert.ErrorIs(t, err, vault.ErrNotFound)

	moved, err := prefs.Get(ctx, "alice2-custom")
	require.NoError(t, err)
	assert.Equal(t, "dark", moved.Theme)
}
