package repository

import (
	"context"

	"github.com/opspanel/panelapi/internal/auth"
	"github.com/opspanel/panelapi/internal/vault"
)

// VaultSessionRepository implements SessionRepository over the encrypted
// blob store. One record per logged-in identity, same basename as the
// identity file.
type VaultSessionRepository struct {
	vault vault.Vault
}

// NewVaultSessionRepository creates a vault-backed session repository.
func NewVaultSessionRepository(v vault.Vault) *VaultSessionRepository {
	return &VaultSessionRepository{vault: v}
}

func (r *VaultSessionRepository) Get(ctx context.Context, key string) (*auth.Session, error) {
	session := new(auth.Session)
	if err := r.vault.Load(ctx, SessionKey(key), session); err != nil {
		return nil, err
	}
	return session, nil
}

func (r *VaultSessionRepository) Save(ctx context.Context, session *auth.Session) error {
	return r.vault.Save(ctx, SessionKey(session.StorageKey()), session)
}

func (r *VaultSessionRepository) Delete(ctx context.Context, key string) error {
	return r.vault.Delete(ctx, SessionKey(key))
}
