// Package identity defines the persisted account model for the admin panel:
// identity records, their paired preference records, the closed role and
// status enumerations, and the storage-key convention that names the
// per-identity files.
package identity

import (
	"fmt"
	"strings"
	"time"
)

// OwnerID is the sentinel id of the environment-bootstrapped owner identity.
// Exactly one identity carries it; it is never minted for regular accounts.
const OwnerID = "owner"

// Role is the closed set of roles an identity can hold.
type Role string

const (
	RoleOwner         Role = "owner"
	RoleAdministrator Role = "administrator"
	RoleAdmin         Role = "admin"
	RoleCustom        Role = "custom"
)

// ParseRole converts a string into a Role, rejecting anything outside the
// closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOwner, RoleAdministrator, RoleAdmin, RoleCustom:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

// Valid reports whether the role is one of the closed set.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

func (r Role) String() string { return string(r) }

// Status is the lifecycle state of an identity.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// ParseStatus converts a string into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusActive, StatusInactive:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown status: %q", s)
	}
}

// Identity is the persisted account record, one file per identity.
type Identity struct {
	ID                     string     `json:"id"`
	Username               string     `json:"username"`
	PasswordHash           string     `json:"passwordHash"`
	PasswordSalt           string     `json:"passwordSalt"`
	Role                   Role       `json:"role"`
	Status                 Status     `json:"status"`
	Projects               []string   `json:"projects"`
	AssignedPages          []string   `json:"assignedPages"`
	AllowedSettingsModules []string   `json:"allowedSettingsModules"`
	CreatedAt              time.Time  `json:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt"`
	LastLogin              *time.Time `json:"lastLogin,omitempty"`
}

// IsOwner reports whether this is the bootstrapped owner identity.
func (i *Identity) IsOwner() bool {
	return i.ID == OwnerID
}

// Active reports whether the identity may establish or keep a session.
func (i *Identity) Active() bool {
	return i.Status == StatusActive
}

// HasPage reports whether a page is in the identity's assigned-page set.
func (i *Identity) HasPage(page string) bool {
	for _, p := range i.AssignedPages {
		if p == page {
			return true
		}
	}
	return false
}

// HasSettingsModule reports whether a settings module is in the identity's
// allow-list.
func (i *Identity) HasSettingsModule(module string) bool {
	for _, m := range i.AllowedSettingsModules {
		if m == module {
			return true
		}
	}
	return false
}

// StorageKey returns the file-name key used for an identity and its paired
// preference and session files.
func (i *Identity) StorageKey() string {
	return StorageKey(i.Username, i.Role)
}

// Preferences is the per-identity preference record, paired 1:1 with the
// identity file under the same storage key.
type Preferences struct {
	Theme           string `json:"theme"`
	Language        string `json:"language"`
	EditorFontSize  int    `json:"editorFontSize"`
	ShowHiddenFiles bool   `json:"showHiddenFiles"`
}

// DefaultPreferences returns the preference record written at identity
// creation.
func DefaultPreferences() *Preferences {
	return &Preferences{
		Theme:          "dark",
		Language:       "en",
		EditorFontSize: 14,
	}
}

// StorageKey derives the storage key for a (username, role) pair:
// sanitize(username) + "-" + sanitize(role).
func StorageKey(username string, role Role) string {
	return SanitizeKeyPart(username) + "-" + SanitizeKeyPart(string(role))
}

// SanitizeKeyPart strips every character that is not alphanumeric, dot, dash
// or underscore, so user-supplied names cannot escape the storage directory.
func SanitizeKeyPart(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}
