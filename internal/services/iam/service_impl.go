package iam

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/opspanel/panelapi/internal/access"
	"github.com/opspanel/panelapi/internal/audit"
	"github.com/opspanel/panelapi/internal/auth"
	"github.com/opspanel/panelapi/internal/config"
	"github.com/opspanel/panelapi/internal/identity"
	"github.com/opspanel/panelapi/internal/repository"
	"github.com/opspanel/panelapi/internal/vault"
)

// Dependencies bundles everything the IAM service needs.
type Dependencies struct {
	Identities  repository.IdentityRepository
	Preferences repository.PreferenceRepository
	Sessions    repository.SessionRepository
	Codec       *auth.TokenCodec
	Audit       audit.Recorder
	Config      *config.Config

	// Now is the clock; defaults to time.Now. Injectable for expiry tests.
	Now func() time.Time
}

type service struct {
	identities  repository.IdentityRepository
	preferences repository.PreferenceRepository
	sessions    repository.SessionRepository
	codec       *auth.TokenCodec
	audit       audit.Recorder
	cfg         *config.Config
	now         func() time.Time
}

// NewService creates the IAM service.
func NewService(deps Dependencies) Service {
	s := &service{
		identities:  deps.Identities,
		preferences: deps.Preferences,
		sessions:    deps.Sessions,
		codec:       deps.Codec,
		audit:       deps.Audit,
		cfg:         deps.Config,
		now:         deps.Now,
	}
	if s.audit == nil {
		s.audit = audit.NopRecorder{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// =============================================================================
// Login / Validate / Logout
// =============================================================================

func (s *service) Login(ctx context.Context, username, password string) (*auth.Principal, string, error) {
	if username == "" || password == "" {
		s.audit.Record(username, "", audit.EventLoginFailed, audit.SeverityWarning,
			map[string]any{"reason": "missing credentials"})
		return nil, "", auth.ErrInvalidCredentials
	}

	var ident *identity.Identity
	var err error

	if username == s.cfg.OwnerUsername {
		// Owner path: reconcile the owner record from configuration before
		// verifying. A bootstrap failure is a server error, never reported
		// as bad credentials.
		ident, err = s.bootstrapOwner(ctx)
		if err != nil {
			s.audit.Record(username, identity.RoleOwner, audit.EventLoginFailed, audit.SeverityError,
				map[string]any{"reason": "owner bootstrap failed", "error": err.Error()})
			return nil, "", err
		}
		if !s.verifyOwnerPassword(password, ident) {
			s.audit.Record(username, identity.RoleOwner, audit.EventLoginFailed, audit.SeverityWarning,
				map[string]any{"reason": "password mismatch"})
			return nil, "", auth.ErrInvalidCredentials
		}
	} else {
		ident, err = s.identities.FindByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, vault.ErrNotFound) {
				s.audit.Record(username, "", audit.EventLoginFailed, audit.SeverityWarning,
					map[string]any{"reason": "unknown username"})
				return nil, "", auth.ErrInvalidCredentials
			}
			return nil, "", fmt.Errorf("%w: lookup identity: %v", auth.ErrStorage, err)
		}
		if !ident.Active() {
			s.audit.Record(username, ident.Role, audit.EventLoginFailed, audit.SeverityWarning,
				map[string]any{"reason": "account inactive"})
			return nil, "", auth.ErrAccountInactive
		}
		if !auth.VerifyPassword(password, ident.PasswordHash, ident.PasswordSalt) {
			s.audit.Record(username, ident.Role, audit.EventLoginFailed, audit.SeverityWarning,
				map[string]any{"reason": "password mismatch"})
			return nil, "", auth.ErrInvalidCredentials
		}
	}

	sess, token, err := s.establishSession(ctx, ident)
	if err != nil {
		s.audit.Record(username, ident.Role, audit.EventLoginFailed, audit.SeverityError,
			map[string]any{"reason": "session establishment failed", "error": err.Error()})
		return nil, "", err
	}

	// Stamp last login. Best effort: the session is already established.
	now := s.now()
	ident.LastLogin = &now
	ident.UpdatedAt = now
	if err := s.identities.Save(ctx, ident); err != nil {
		s.audit.Record(username, ident.Role, audit.EventLogin, audit.SeverityWarning,
			map[string]any{"detail": "last login stamp failed", "error": err.Error()})
	}

	s.audit.Record(username, ident.Role, audit.EventLogin, audit.SeverityInfo, nil)
	return &auth.Principal{Identity: ident, Session: sess}, token, nil
}

// verifyOwnerPassword first compares against the live configured plaintext
// (covers configuration rotation without a rehash step) and only falls back
// to the stored hash when that fails.
func (s *service) verifyOwnerPassword(password string, owner *identity.Identity) bool {
	if auth.ConstantTimeEquals(password, s.cfg.OwnerPassword) {
		return true
	}
	return auth.VerifyPassword(password, owner.PasswordHash, owner.PasswordSalt)
}

// establishSession mints the opaque token, writes the server-side record,
// and signs the client token, both carrying the same settings snapshot.
func (s *service) establishSession(ctx context.Context, ident *identity.Identity) (*auth.Session, string, error) {
	opaque, err := auth.GenerateOpaqueToken()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", auth.ErrConfiguration, err)
	}

	settings := s.cfg.Settings()
	now := s.now()
	sess := &auth.Session{
		IdentityID:               ident.ID,
		Username:                 ident.Username,
		Role:                     ident.Role,
		Token:                    opaque,
		CreatedAt:                now,
		LastActivity:             now,
		InactivityTimeoutMinutes: settings.SessionInactivityTimeoutMinutes,
		DisableInactivityExpiry:  settings.DisableInactivityExpiry,
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, "", fmt.Errorf("%w: save session: %v", auth.ErrStorage, err)
	}

	token, err := s.signClaims(sess, nil)
	if err != nil {
		return nil, "", err
	}
	return sess, token, nil
}

// signClaims issues a client token mirroring the session record, carrying
// the impersonation slot when present.
func (s *service) signClaims(sess *auth.Session, imp *auth.ImpersonationInfo) (string, error) {
	claims := &auth.ClientClaims{
		LoggedIn:       true,
		IdentityID:     sess.IdentityID,
		Username:       sess.Username,
		Role:           sess.Role,
		LastActivity:   sess.LastActivity.UnixMilli(),
		TimeoutMinutes: sess.InactivityTimeoutMinutes,
		DisableExpiry:  sess.DisableInactivityExpiry,
	}
	if imp != nil {
		claims.OriginalIdentityID = imp.OriginalIdentityID
		claims.OriginalUsername = imp.OriginalUsername
		claims.OriginalRole = imp.OriginalRole
	}
	token, err := s.codec.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("%w: %v", auth.ErrConfiguration, err)
	}
	return token, nil
}

func (s *service) Validate(ctx context.Context, rawToken string) (*auth.Principal, string, error) {
	if rawToken == "" {
		return nil, "", auth.ErrSessionInvalid
	}
	claims, err := s.codec.Parse(rawToken)
	if err != nil {
		return nil, "", err
	}

	key := identity.StorageKey(claims.Username, claims.Role)
	sess, err := s.sessions.Get(ctx, key)
	if err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			// Token points at no server record: forged or stale.
			s.audit.Record(claims.Username, claims.Role, audit.EventSessionInvalid, audit.SeverityWarning,
				map[string]any{"reason": "no session record"})
			return nil, "", auth.ErrSessionInvalid
		}
		// Storage failure collapses to logged-out rather than leaking
		// partial state.
		return nil, "", fmt.Errorf("%w: load session: %v", auth.ErrSessionInvalid, err)
	}
	if sess.IdentityID != claims.IdentityID {
		s.audit.Record(claims.Username, claims.Role, audit.EventSessionInvalid, audit.SeverityWarning,
			map[string]any{"reason": "identity mismatch"})
		return nil, "", auth.ErrSessionInvalid
	}

	now := s.now()
	if sess.ExpiredAt(now) {
		if err := s.sessions.Delete(ctx, key); err != nil && !errors.Is(err, vault.ErrNotFound) {
			s.audit.Record(claims.Username, claims.Role, audit.EventSessionExpired, audit.SeverityError,
				map[string]any{"detail": "expired session cleanup failed", "error": err.Error()})
		}
		s.audit.Record(claims.Username, claims.Role, audit.EventSessionExpired, audit.SeverityInfo, nil)
		return nil, "", auth.ErrSessionExpired
	}

	sess.LastActivity = now
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, "", fmt.Errorf("%w: refresh session: %v", auth.ErrSessionInvalid, err)
	}

	// Re-load the canonical identity; the token's role and flags are never
	// trusted for authorization.
	ident, err := s.identities.FindByID(ctx, claims.IdentityID)
	if err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			// Session points at a deleted identity: destroy both artifacts.
			if derr := s.sessions.Delete(ctx, key); derr != nil && !errors.Is(derr, vault.ErrNotFound) {
				s.audit.Record(claims.Username, claims.Role, audit.EventSessionInvalid, audit.SeverityError,
					map[string]any{"detail": "orphan session cleanup failed", "error": derr.Error()})
			}
			s.audit.Record(claims.Username, claims.Role, audit.EventSessionInvalid, audit.SeverityWarning,
				map[string]any{"reason": "identity record missing"})
			return nil, "", auth.ErrSessionInvalid
		}
		return nil, "", fmt.Errorf("%w: load identity: %v", auth.ErrSessionInvalid, err)
	}

	var imp *auth.ImpersonationInfo
	if claims.Impersonating() {
		imp = &auth.ImpersonationInfo{
			OriginalIdentityID: claims.OriginalIdentityID,
			OriginalUsername:   claims.OriginalUsername,
			OriginalRole:       claims.OriginalRole,
		}
	}

	refreshed, err := s.signClaims(sess, imp)
	if err != nil {
		return nil, "", err
	}
	return &auth.Principal{Identity: ident, Session: sess, Impersonation: imp}, refreshed, nil
}

func (s *service) Logout(ctx context.Context, principal *auth.Principal) error {
	if principal == nil || principal.Session == nil {
		return nil
	}
	key := principal.Session.StorageKey()
	if err := s.sessions.Delete(ctx, key); err != nil && !errors.Is(err, vault.ErrNotFound) {
		return fmt.Errorf("%w: delete session: %v", auth.ErrStorage, err)
	}
	s.audit.Record(principal.ActorName(), principal.ActorRole(), audit.EventLogout, audit.SeverityInfo, nil)
	return nil
}

// =============================================================================
// Impersonation
// =============================================================================

func (s *service) StartImpersonation(ctx context.Context, principal *auth.Principal, targetID string) (*auth.Principal, string, error) {
	acting := principal.Identity

	deny := func(reason string, err error) (*auth.Principal, string, error) {
		s.audit.Record(principal.ActorName(), principal.ActorRole(), audit.EventImpersonationDenied,
			audit.SeverityWarning, map[string]any{"target": targetID, "reason": reason})
		return nil, "", err
	}

	if principal.Impersonation != nil {
		// A single impersonation level only; the original-actor slot is not
		// a stack.
		return deny("already impersonating", fmt.Errorf("%w: already impersonating", auth.ErrValidationFailed))
	}
	if acting.Role != identity.RoleOwner && acting.Role != identity.RoleAdministrator {
		return deny("insufficient role", auth.ErrPermissionDenied)
	}

	target, err := s.identities.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			return deny("target not found", auth.ErrIdentityNotFound)
		}
		return nil, "", fmt.Errorf("%w: load target: %v", auth.ErrStorage, err)
	}
	if target.IsOwner() {
		return deny("target is owner", auth.ErrPermissionDenied)
	}
	if target.ID == acting.ID {
		return deny("target is self", auth.ErrPermissionDenied)
	}
	if !target.Active() {
		return deny("target inactive", auth.ErrAccountInactive)
	}

	// Separate record for the target; the actor's own session record stays
	// untouched so it can be restored.
	sess, err := s.createSessionRecord(ctx, target)
	if err != nil {
		return nil, "", err
	}

	imp := &auth.ImpersonationInfo{
		OriginalIdentityID: acting.ID,
		OriginalUsername:   acting.Username,
		OriginalRole:       acting.Role,
	}
	token, err := s.signClaims(sess, imp)
	if err != nil {
		return nil, "", err
	}

	s.audit.Record(acting.Username, acting.Role, audit.EventImpersonationStarted, audit.SeverityInfo,
		map[string]any{"target": target.Username})
	return &auth.Principal{Identity: target, Session: sess, Impersonation: imp}, token, nil
}

func (s *service) StopImpersonation(ctx context.Context, principal *auth.Principal) (*auth.Principal, string, error) {
	if principal.Impersonation == nil {
		return nil, "", fmt.Errorf("%w: not impersonating", auth.ErrValidationFailed)
	}
	imp := principal.Impersonation

	// Drop the impersonated identity's session record.
	if principal.Session != nil {
		if err := s.sessions.Delete(ctx, principal.Session.StorageKey()); err != nil && !errors.Is(err, vault.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: delete impersonated session: %v", auth.ErrStorage, err)
		}
	}

	orig, err := s.identities.FindByID(ctx, imp.OriginalIdentityID)
	if err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			return nil, "", auth.ErrSessionInvalid
		}
		return nil, "", fmt.Errorf("%w: load original identity: %v", auth.ErrStorage, err)
	}

	// The actor's own record was left in place at start; it must still be
	// there for the restore to succeed.
	origKey := identity.StorageKey(orig.Username, orig.Role)
	origSess, err := s.sessions.Get(ctx, origKey)
	if err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			return nil, "", auth.ErrSessionInvalid
		}
		return nil, "", fmt.Errorf("%w: load original session: %v", auth.ErrStorage, err)
	}

	origSess.LastActivity = s.now()
	if err := s.sessions.Save(ctx, origSess); err != nil {
		return nil, "", fmt.Errorf("%w: refresh original session: %v", auth.ErrStorage, err)
	}

	token, err := s.signClaims(origSess, nil)
	if err != nil {
		return nil, "", err
	}

	s.audit.Record(orig.Username, orig.Role, audit.EventImpersonationStopped, audit.SeverityInfo,
		map[string]any{"target": principal.Identity.Username})
	return &auth.Principal{Identity: orig, Session: origSess}, token, nil
}

// createSessionRecord writes a fresh server-side session record for ident.
func (s *service) createSessionRecord(ctx context.Context, ident *identity.Identity) (*auth.Session, error) {
	opaque, err := auth.GenerateOpaqueToken()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrConfiguration, err)
	}
	settings := s.cfg.Settings()
	now := s.now()
	sess := &auth.Session{
		IdentityID:               ident.ID,
		Username:                 ident.Username,
		Role:                     ident.Role,
		Token:                    opaque,
		CreatedAt:                now,
		LastActivity:             now,
		InactivityTimeoutMinutes: settings.SessionInactivityTimeoutMinutes,
		DisableInactivityExpiry:  settings.DisableInactivityExpiry,
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("%w: save session: %v", auth.ErrStorage, err)
	}
	return sess, nil
}

// =============================================================================
// Owner bootstrap
// =============================================================================

// bootstrapOwner idempotently synthesizes or refreshes the owner record from
// the configured credentials. Existing createdAt, page/project/settings
// assignments and lastLogin are preserved; the password hash is always
// re-derived from the live configuration so a rotated password takes effect
// on the next login.
func (s *service) bootstrapOwner(ctx context.Context) (*identity.Identity, error) {
	existing, err := s.identities.FindByID(ctx, identity.OwnerID)
	if err != nil && !errors.Is(err, vault.ErrNotFound) {
		return nil, fmt.Errorf("%w: load owner record: %v", auth.ErrConfiguration, err)
	}

	hash, salt, err := auth.HashPassword(s.cfg.OwnerPassword)
	if err != nil {
		return nil, fmt.Errorf("%w: hash owner password: %v", auth.ErrConfiguration, err)
	}

	now := s.now()
	owner := &identity.Identity{
		ID:           identity.OwnerID,
		Username:     s.cfg.OwnerUsername,
		PasswordHash: hash,
		PasswordSalt: salt,
		Role:         identity.RoleOwner,
		Status:       identity.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var oldKey string
	if existing != nil {
		owner.CreatedAt = existing.CreatedAt
		owner.Projects = existing.Projects
		owner.AssignedPages = existing.AssignedPages
		owner.AllowedSettingsModules = existing.AllowedSettingsModules
		owner.LastLogin = existing.LastLogin
		if existing.StorageKey() != owner.StorageKey() {
			oldKey = existing.StorageKey()
		}
	}

	if err := s.identities.Save(ctx, owner); err != nil {
		return nil, fmt.Errorf("%w: persist owner record: %v", auth.ErrConfiguration, err)
	}

	if oldKey != "" {
		// Configured owner username changed: migrate off the old key.
		if err := s.identities.Delete(ctx, oldKey); err != nil && !errors.Is(err, vault.ErrNotFound) {
			s.audit.Record(owner.Username, identity.RoleOwner, audit.EventIdentityUpdated, audit.SeverityWarning,
				map[string]any{"detail": "stale owner file cleanup failed", "error": err.Error()})
		}
		s.migrateCompanionFiles(ctx, oldKey, owner)
	}

	// Make sure the paired preference file exists.
	if _, err := s.preferences.Get(ctx, owner.StorageKey()); errors.Is(err, vault.ErrNotFound) {
		if serr := s.preferences.Save(ctx, owner.StorageKey(), identity.DefaultPreferences()); serr != nil {
			s.audit.Record(owner.Username, identity.RoleOwner, audit.EventIdentityUpdated, audit.SeverityWarning,
				map[string]any{"detail": "owner preference write failed", "error": serr.Error()})
		}
	}

	return owner, nil
}

// =============================================================================
// Identity CRUD
// =============================================================================

func (s *service) CreateIdentity(ctx context.Context, actor *auth.Principal, input CreateIdentityInput) (*identity.Identity, error) {
	if input.Username == "" {
		return nil, fmt.Errorf("%w: username is required", auth.ErrValidationFailed)
	}
	if input.Password == "" {
		return nil, fmt.Errorf("%w: password is required", auth.ErrValidationFailed)
	}
	if !input.Role.Valid() || input.Role == identity.RoleOwner {
		return nil, fmt.Errorf("%w: role must be administrator, admin, or custom", auth.ErrValidationFailed)
	}
	if input.Username == s.cfg.OwnerUsername {
		return nil, fmt.Errorf("%w: username %q is reserved", auth.ErrValidationFailed, input.Username)
	}

	if _, err := s.identities.FindByUsername(ctx, input.Username); err == nil {
		return nil, fmt.Errorf("%w: username %q already exists", auth.ErrValidationFailed, input.Username)
	} else if !errors.Is(err, vault.ErrNotFound) {
		return nil, fmt.Errorf("%w: lookup username: %v", auth.ErrStorage, err)
	}

	// Distinct usernames can sanitize to the same storage key; writing under
	// an occupied key would silently destroy the other identity's file.
	if other, err := s.identities.GetByKey(ctx, identity.StorageKey(input.Username, input.Role)); err == nil {
		return nil, fmt.Errorf("%w: username %q collides with existing identity %q",
			auth.ErrValidationFailed, input.Username, other.Username)
	} else if !errors.Is(err, vault.ErrNotFound) {
		return nil, fmt.Errorf("%w: check storage key: %v", auth.ErrStorage, err)
	}

	hash, salt, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", auth.ErrStorage, err)
	}

	now := s.now()
	ident := &identity.Identity{
		ID:                     uuid.NewString(),
		Username:               input.Username,
		PasswordHash:           hash,
		PasswordSalt:           salt,
		Role:                   input.Role,
		Status:                 identity.StatusActive,
		Projects:               input.Projects,
		AssignedPages:          input.AssignedPages,
		AllowedSettingsModules: input.AllowedSettingsModules,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	if err := s.identities.Save(ctx, ident); err != nil {
		return nil, fmt.Errorf("%w: save identity: %v", auth.ErrStorage, err)
	}
	if err := s.preferences.Save(ctx, ident.StorageKey(), identity.DefaultPreferences()); err != nil {
		return nil, fmt.Errorf("%w: save preferences: %v", auth.ErrStorage, err)
	}

	s.audit.Record(actorName(actor), actorRole(actor), audit.EventIdentityCreated, audit.SeverityInfo,
		map[string]any{"username": ident.Username, "identityRole": string(ident.Role)})
	return ident, nil
}

func (s *service) UpdateIdentity(ctx context.Context, actor *auth.Principal, id string, input UpdateIdentityInput) (*identity.Identity, error) {
	ident, err := s.identities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			return nil, auth.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("%w: load identity: %v", auth.ErrStorage, err)
	}

	renaming := (input.Username != nil && *input.Username != ident.Username) ||
		(input.Role != nil && *input.Role != ident.Role)
	if ident.IsOwner() && renaming {
		return nil, fmt.Errorf("%w: the owner's username and role cannot be changed", auth.ErrValidationFailed)
	}

	if input.Username != nil && *input.Username != ident.Username {
		if *input.Username == "" {
			return nil, fmt.Errorf("%w: username is required", auth.ErrValidationFailed)
		}
		if *input.Username == s.cfg.OwnerUsername {
			return nil, fmt.Errorf("%w: username %q is reserved", auth.ErrValidationFailed, *input.Username)
		}
		if other, err := s.identities.FindByUsername(ctx, *input.Username); err == nil && other.ID != ident.ID {
			return nil, fmt.Errorf("%w: username %q already exists", auth.ErrValidationFailed, *input.Username)
		} else if err != nil && !errors.Is(err, vault.ErrNotFound) {
			return nil, fmt.Errorf("%w: lookup username: %v", auth.ErrStorage, err)
		}
	}
	if input.Role != nil && (!input.Role.Valid() || *input.Role == identity.RoleOwner) {
		return nil, fmt.Errorf("%w: role must be administrator, admin, or custom", auth.ErrValidationFailed)
	}

	oldKey := ident.StorageKey()

	if input.Username != nil {
		ident.Username = *input.Username
	}
	if input.Role != nil {
		ident.Role = *input.Role
	}
	if input.Status != nil {
		if _, err := identity.ParseStatus(string(*input.Status)); err != nil {
			return nil, fmt.Errorf("%w: %v", auth.ErrValidationFailed, err)
		}
		ident.Status = *input.Status
	}
	if input.Password != nil {
		if *input.Password == "" {
			return nil, fmt.Errorf("%w: password must not be empty", auth.ErrValidationFailed)
		}
		hash, salt, err := auth.HashPassword(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("%w: hash password: %v", auth.ErrStorage, err)
		}
		ident.PasswordHash = hash
		ident.PasswordSalt = salt
	}
	if input.Projects != nil {
		ident.Projects = *input.Projects
	}
	if input.AssignedPages != nil {
		ident.AssignedPages = *input.AssignedPages
	}
	if input.AllowedSettingsModules != nil {
		ident.AllowedSettingsModules = *input.AllowedSettingsModules
	}
	ident.UpdatedAt = s.now()

	// Same collision guard as creation: the new key must not already hold a
	// different identity's file.
	if newKey := ident.StorageKey(); newKey != oldKey {
		if other, err := s.identities.GetByKey(ctx, newKey); err == nil && other.ID != ident.ID {
			return nil, fmt.Errorf("%w: username %q collides with existing identity %q",
				auth.ErrValidationFailed, ident.Username, other.Username)
		} else if err != nil && !errors.Is(err, vault.ErrNotFound) {
			return nil, fmt.Errorf("%w: check storage key: %v", auth.ErrStorage, err)
		}
	}

	// Write the identity under its (possibly new) key first: after this
	// point the new file is the single source of truth, whatever happens to
	// the companion files.
	if err := s.identities.Save(ctx, ident); err != nil {
		return nil, fmt.Errorf("%w: save identity: %v", auth.ErrStorage, err)
	}

	if newKey := ident.StorageKey(); newKey != oldKey {
		if err := s.identities.Delete(ctx, oldKey); err != nil && !errors.Is(err, vault.ErrNotFound) {
			return nil, fmt.Errorf("%w: remove old identity file: %v", auth.ErrStorage, err)
		}
		s.migrateCompanionFiles(ctx, oldKey, ident)
	}

	s.audit.Record(actorName(actor), actorRole(actor), audit.EventIdentityUpdated, audit.SeverityInfo,
		map[string]any{"username": ident.Username, "identityRole": string(ident.Role)})
	return ident, nil
}

// migrateCompanionFiles moves the preference file and any live session
// record from oldKey to the identity's current key. Preference rename
// failures fall back to recreating defaults under the new key; a session
// that cannot be migrated is dropped. Neither failure is allowed to
// invalidate the already-written identity file.
func (s *service) migrateCompanionFiles(ctx context.Context, oldKey string, ident *identity.Identity) {
	newKey := ident.StorageKey()

	if err := s.preferences.Rename(ctx, oldKey, newKey); err != nil {
		if serr := s.preferences.Save(ctx, newKey, identity.DefaultPreferences()); serr != nil {
			s.audit.Record(ident.Username, ident.Role, audit.EventIdentityUpdated, audit.SeverityWarning,
				map[string]any{"detail": "preference migration failed", "error": serr.Error()})
		}
	}

	sess, err := s.sessions.Get(ctx, oldKey)
	if err != nil {
		if !errors.Is(err, vault.ErrNotFound) {
			s.audit.Record(ident.Username, ident.Role, audit.EventIdentityUpdated, audit.SeverityWarning,
				map[string]any{"detail": "session migration failed", "error": err.Error()})
		}
		return
	}
	if err := s.sessions.Delete(ctx, oldKey); err != nil && !errors.Is(err, vault.ErrNotFound) {
		s.audit.Record(ident.Username, ident.Role, audit.EventIdentityUpdated, audit.SeverityWarning,
			map[string]any{"detail": "stale session cleanup failed", "error": err.Error()})
	}
	sess.Username = ident.Username
	sess.Role = ident.Role
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.audit.Record(ident.Username, ident.Role, audit.EventIdentityUpdated, audit.SeverityWarning,
			map[string]any{"detail": "session migration failed", "error": err.Error()})
	}
}

func (s *service) DeleteIdentity(ctx context.Context, actor *auth.Principal, id string) error {
	ident, err := s.identities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			return auth.ErrIdentityNotFound
		}
		return fmt.Errorf("%w: load identity: %v", auth.ErrStorage, err)
	}
	if ident.IsOwner() {
		return fmt.Errorf("%w: the owner identity cannot be deleted", auth.ErrPermissionDenied)
	}

	key := ident.StorageKey()
	if err := s.identities.Delete(ctx, key); err != nil && !errors.Is(err, vault.ErrNotFound) {
		return fmt.Errorf("%w: delete identity: %v", auth.ErrStorage, err)
	}
	if err := s.preferences.Delete(ctx, key); err != nil && !errors.Is(err, vault.ErrNotFound) {
		return fmt.Errorf("%w: delete preferences: %v", auth.ErrStorage, err)
	}
	if err := s.sessions.Delete(ctx, key); err != nil && !errors.Is(err, vault.ErrNotFound) {
		return fmt.Errorf("%w: delete session: %v", auth.ErrStorage, err)
	}

	s.audit.Record(actorName(actor), actorRole(actor), audit.EventIdentityDeleted, audit.SeverityInfo,
		map[string]any{"username": ident.Username, "identityRole": string(ident.Role)})
	return nil
}

func (s *service) ListIdentities(ctx context.Context) ([]identity.Identity, error) {
	list, err := s.identities.ListNonOwner(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list identities: %v", auth.ErrStorage, err)
	}
	return list, nil
}

func (s *service) CanAccess(ident *identity.Identity, res access.Resource) bool {
	return access.CanAccess(ident, res)
}

func actorName(p *auth.Principal) string {
	if p == nil {
		return "system"
	}
	return p.ActorName()
}

func actorRole(p *auth.Principal) identity.Role {
	if p == nil {
		return ""
	}
	return p.ActorRole()
}
