package iam

import (
	"context"

	"github.com/opspanel/panelapi/internal/access"
	"github.com/opspanel/panelapi/internal/auth"
	"github.com/opspanel/panelapi/internal/identity"
)

// Service provides all identity and session management operations.
type Service interface {
	// =========================================================================
	// Sessions
	// =========================================================================

	// Login authenticates a (username, password) pair and establishes the
	// dual session state: a server-side session record plus a signed client
	// token.
	//
	// Returns:
	//   - (principal, token, nil): session established
	//   - auth.ErrInvalidCredentials: bad username or password (never reveals
	//     which)
	//   - auth.ErrAccountInactive: credentials correct, identity inactive
	//   - auth.ErrConfiguration: the owner bootstrap itself failed
	Login(ctx context.Context, username, password string) (*auth.Principal, string, error)

	// Validate reconciles a client token with its server-side session record,
	// bumps the record's activity timestamp, and re-loads the canonical
	// identity. Returns the principal plus a refreshed client token.
	//
	// On auth.ErrSessionExpired or auth.ErrSessionInvalid both session
	// artifacts are destroyed; the returned token is empty and the caller
	// must clear its copy.
	Validate(ctx context.Context, rawToken string) (*auth.Principal, string, error)

	// Logout deletes the server-side session record. Idempotent: a missing
	// record is not an error. The caller clears the client token.
	Logout(ctx context.Context, principal *auth.Principal) error

	// =========================================================================
	// Impersonation
	// =========================================================================

	// StartImpersonation lets the acting principal assume the target
	// identity's session. The acting role must be owner or administrator;
	// the target must exist, be active, and be neither the owner nor the
	// actor. Starting while already impersonating is rejected. A separate
	// session record is created for the target; the actor's own record is
	// left untouched.
	StartImpersonation(ctx context.Context, principal *auth.Principal, targetID string) (*auth.Principal, string, error)

	// StopImpersonation restores the original identity captured at start,
	// deleting the impersonated identity's session record.
	StopImpersonation(ctx context.Context, principal *auth.Principal) (*auth.Principal, string, error)

	// =========================================================================
	// Identity administration
	// =========================================================================

	// CreateIdentity creates a non-owner identity plus its default
	// preference record. A username equal to the configured owner username
	// is always rejected as reserved.
	CreateIdentity(ctx context.Context, actor *auth.Principal, input CreateIdentityInput) (*identity.Identity, error)

	// UpdateIdentity applies a partial update. Username or role changes
	// migrate the identity, preference and live session files to the new
	// storage key, in that order. The owner is exempt from username/role
	// mutation.
	UpdateIdentity(ctx context.Context, actor *auth.Principal, id string, input UpdateIdentityInput) (*identity.Identity, error)

	// DeleteIdentity removes the identity, preference, and any live session
	// file. Deleting a missing id returns auth.ErrIdentityNotFound with no
	// side effects; deleting the owner is always rejected.
	DeleteIdentity(ctx context.Context, actor *auth.Principal, id string) error

	// ListIdentities returns every identity except the owner.
	ListIdentities(ctx context.Context) ([]identity.Identity, error)

	// =========================================================================
	// Authorization
	// =========================================================================

	// CanAccess is the pure authorization decision over the canonical
	// identity record.
	CanAccess(ident *identity.Identity, res access.Resource) bool
}

// CreateIdentityInput carries the fields for identity creation.
type CreateIdentityInput struct {
	Username               string
	Password               string
	Role                   identity.Role
	Projects               []string
	AssignedPages          []string
	AllowedSettingsModules []string
}

// UpdateIdentityInput carries a partial update; nil fields are left
// unchanged.
type UpdateIdentityInput struct {
	Username               *string
	Password               *string
	Role                   *identity.Role
	Status                 *identity.Status
	Projects               *[]string
	AssignedPages          *[]string
	AllowedSettingsModules *[]string
}
