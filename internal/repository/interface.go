// Package repository persists identity, preference, and session records as
// one encrypted file per record, keyed by the (username, role) storage key.
// Lookups scan the store; acceptable at admin-panel scale, and a known
// scaling limit.
package repository

import (
	"context"

	"github.com/opspanel/panelapi/internal/auth"
	"github.com/opspanel/panelapi/internal/identity"
)

// IdentityRepository exposes persistence operations for identity records.
type IdentityRepository interface {
	// Save writes the identity under its current storage key.
	Save(ctx context.Context, ident *identity.Identity) error
	// GetByKey loads the identity stored under key. Returns vault.ErrNotFound
	// when absent.
	GetByKey(ctx context.Context, key string) (*identity.Identity, error)
	// Delete removes the identity file under key.
	Delete(ctx context.Context, key string) error
	// FindByID scans for the identity with the given id, owner included.
	FindByID(ctx context.Context, id string) (*identity.Identity, error)
	// FindByUsername scans for the identity with the given username
	// (case-sensitive), owner included.
	FindByUsername(ctx context.Context, username string) (*identity.Identity, error)
	// ListNonOwner returns every identity except the owner.
	ListNonOwner(ctx context.Context) ([]identity.Identity, error)
}

// PreferenceRepository exposes persistence for per-identity preference
// records, paired 1:1 with identity files by storage key.
type PreferenceRepository interface {
	Get(ctx context.Context, key string) (*identity.Preferences, error)
	Save(ctx context.Context, key string, prefs *identity.Preferences) error
	Delete(ctx context.Context, key string) error
	Rename(ctx context.Context, oldKey, newKey string) error
}

// SessionRepository exposes persistence for server-side session records.
// No Rename: a migrated session carries its username and role inside the
// record, so the migration rewrites it via Get/Delete/Save instead.
type SessionRepository interface {
	Get(ctx context.Context, key string) (*auth.Session, error)
	Save(ctx context.Context, session *auth.Session) error
	Delete(ctx context.Context, key string) error
}
