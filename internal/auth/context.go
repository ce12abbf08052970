package auth

import (
	"context"

	"github.com/opspanel/panelapi/internal/identity"
)

// Principal captures the validated identity propagated through the request
// context. Role and permission fields come from the canonical identity record
// re-loaded during validation, never from the client token.
type Principal struct {
	// Identity is the canonical identity record for the active session.
	Identity *identity.Identity
	// Session is the live server-side session record.
	Session *Session
	// Impersonation is set while a privileged actor is acting as Identity.
	Impersonation *ImpersonationInfo
}

// ImpersonationInfo names the real actor behind an impersonated session.
type ImpersonationInfo struct {
	OriginalIdentityID string
	OriginalUsername   string
	OriginalRole       identity.Role
}

// ActorName returns the name to audit-log under: the original actor while
// impersonating, the active identity otherwise.
func (p *Principal) ActorName() string {
	if p.Impersonation != nil {
		return p.Impersonation.OriginalUsername
	}
	return p.Identity.Username
}

// ActorRole returns the acting actor's role, mirroring ActorName.
func (p *Principal) ActorRole() identity.Role {
	if p.Impersonation != nil {
		return p.Impersonation.OriginalRole
	}
	return p.Identity.Role
}

type principalContextKey struct{}

// SetPrincipalContext stores the validated principal on the context for
// downstream consumers.
func SetPrincipalContext(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFromContext retrieves the validated principal from the context.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	principal, ok := ctx.Value(principalContextKey{}).(*Principal)
	return principal, ok
}
