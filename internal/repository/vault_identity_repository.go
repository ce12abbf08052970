package repository

import (
	"context"
	"fmt"

	"github.com/opspanel/panelapi/internal/identity"
	"github.com/opspanel/panelapi/internal/vault"
)

// Directory prefixes inside the vault. The three files belonging to one
// identity share the same basename under these prefixes.
const (
	identityPrefix   = "users"
	preferencePrefix = "preferences"
	sessionPrefix    = "sessions"
)

// IdentityKey returns the vault key for an identity storage key.
func IdentityKey(key string) string { return identityPrefix + "/" + key + ".json" }

// PreferenceKey returns the vault key for a preference storage key.
func PreferenceKey(key string) string { return preferencePrefix + "/" + key + ".json" }

// SessionKey returns the vault key for a session storage key.
func SessionKey(key string) string { return sessionPrefix + "/" + key + ".json" }

// VaultIdentityRepository implements IdentityRepository over the encrypted
// blob store.
type VaultIdentityRepository struct {
	vault vault.Vault
}

// NewVaultIdentityRepository creates a vault-backed identity repository.
func NewVaultIdentityRepository(v vault.Vault) *VaultIdentityRepository {
	return &VaultIdentityRepository{vault: v}
}

func (r *VaultIdentityRepository) Save(ctx context.Context, ident *identity.Identity) error {
	if err := r.vault.Save(ctx, IdentityKey(ident.StorageKey()), ident); err != nil {
		return fmt.Errorf("save identity %s: %w", ident.StorageKey(), err)
	}
	return nil
}

func (r *VaultIdentityRepository) GetByKey(ctx context.Context, key string) (*identity.Identity, error) {
	ident := new(identity.Identity)
	if err := r.vault.Load(ctx, IdentityKey(key), ident); err != nil {
		return nil, err
	}
	return ident, nil
}

func (r *VaultIdentityRepository) Delete(ctx context.Context, key string) error {
	return r.vault.Delete(ctx, IdentityKey(key))
}

func (r *VaultIdentityRepository) FindByID(ctx context.Context, id string) (*identity.Identity, error) {
	return r.scan(ctx, func(ident *identity.Identity) bool { return ident.ID == id })
}

func (r *VaultIdentityRepository) FindByUsername(ctx context.Context, username string) (*identity.Identity, error) {
	return r.scan(ctx, func(ident *identity.Identity) bool { return ident.Username == username })
}

func (r *VaultIdentityRepository) ListNonOwner(ctx context.Context) ([]identity.Identity, error) {
	keys, err := r.vault.List(ctx, identityPrefix)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	result := make([]identity.Identity, 0, len(keys))
	for _, key := range keys {
		var ident identity.Identity
		if err := r.vault.Load(ctx, key, &ident); err != nil {
			return nil, fmt.Errorf("load identity %s: %w", key, err)
		}
		if ident.IsOwner() {
			continue
		}
		result = append(result, ident)
	}
	return result, nil
}

// scan loads identity files one by one until match returns true. Not indexed;
// fine for the handful of panel accounts this stores.
func (r *VaultIdentityRepository) scan(ctx context.Context, match func(*identity.Identity) bool) (*identity.Identity, error) {
	keys, err := r.vault.List(ctx, identityPrefix)
	if err != nil {
		return nil, fmt.Errorf("scan identities: %w", err)
	}
	for _, key := range keys {
		ident := new(identity.Identity)
		if err := r.vault.Load(ctx, key, ident); err != nil {
			return nil, fmt.Errorf("load identity %s: %w", key, err)
		}
		if match(ident) {
			return ident, nil
		}
	}
	return nil, vault.ErrNotFound
}
