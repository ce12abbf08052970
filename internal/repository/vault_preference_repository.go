package repository

import (
	"context"

	"github.com/opspanel/panelapi/internal/identity"
	"github.com/opspanel/panelapi/internal/vault"
)

// VaultPreferenceRepository implements PreferenceRepository over the
// encrypted blob store.
type VaultPreferenceRepository struct {
	vault vault.Vault
}

// NewVaultPreferenceRepository creates a vault-backed preference repository.
func NewVaultPreferenceRepository(v vault.Vault) *VaultPreferenceRepository {
	return &VaultPreferenceRepository{vault: v}
}

func (r *VaultPreferenceRepository) Get(ctx context.Context, key string) (*identity.Preferences, error) {
	prefs := new(identity.Preferences)
	if err := r.vault.Load(ctx, PreferenceKey(key), prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

func (r *VaultPreferenceRepository) Save(ctx context.Context, key string, prefs *identity.Preferences) error {
	return r.vault.Save(ctx, PreferenceKey(key), prefs)
}

func (r *VaultPreferenceRepository) Delete(ctx context.Context, key string) error {
	return r.vault.Delete(ctx, PreferenceKey(key))
}

func (r *VaultPreferenceRepository) Rename(ctx context.Context, oldKey, newKey string) error {
	return r.vault.Rename(ctx, PreferenceKey(oldKey), PreferenceKey(newKey))
}
