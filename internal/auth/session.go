package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/opspanel/panelapi/internal/identity"
)

// TokenLength is the length of generated opaque session tokens in bytes.
const TokenLength = 32

// Session is the server-side session record, one per currently-logged-in
// identity, keyed by the identity's (username, role) storage key. It is the
// single source of truth for expiry; the client token only mirrors it.
type Session struct {
	IdentityID               string        `json:"identityId"`
	Username                 string        `json:"username"`
	Role                     identity.Role `json:"role"`
	Token                    string        `json:"opaqueToken"`
	CreatedAt                time.Time     `json:"createdAt"`
	LastActivity             time.Time     `json:"lastActivity"`
	InactivityTimeoutMinutes int           `json:"inactivityTimeoutMinutes"`
	DisableInactivityExpiry  bool          `json:"disableInactivityExpiry"`
}

// StorageKey returns the file-name key the session record is stored under,
// identical to the identity's key.
func (s *Session) StorageKey() string {
	return identity.StorageKey(s.Username, s.Role)
}

// ExpiredAt reports whether the session's inactivity window has elapsed at
// the given instant. Expiry is evaluated lazily on validation; there is no
// background sweep.
func (s *Session) ExpiredAt(now time.Time) bool {
	if s.DisableInactivityExpiry {
		return false
	}
	timeout := time.Duration(s.InactivityTimeoutMinutes) * time.Minute
	return now.Sub(s.LastActivity) > timeout
}

// GenerateOpaqueToken generates a cryptographically random session token,
// hex encoded.
func GenerateOpaqueToken() (string, error) {
	buf := make([]byte, TokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
