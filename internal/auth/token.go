package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/opspanel/panelapi/internal/identity"
)

// SessionCookieName is the cookie carrying the signed client session token.
const SessionCookieName = "panel.session"

// ClientClaims is the signed, tamper-evident client session token. It is
// never independently authoritative: the identityId must resolve to a live
// server-side session record, and all authorization-relevant fields are
// re-derived server-side on every request.
type ClientClaims struct {
	LoggedIn       bool          `json:"loggedIn"`
	IdentityID     string        `json:"identityId"`
	Username       string        `json:"username"`
	Role           identity.Role `json:"role"`
	LastActivity   int64         `json:"lastActivity"` // unix milliseconds
	TimeoutMinutes int           `json:"timeoutMinutes"`
	DisableExpiry  bool          `json:"disableExpiry"`

	// Impersonation slot. A single level only: set means the named actor is
	// currently acting as the identity above.
	OriginalIdentityID string        `json:"originalIdentityId,omitempty"`
	OriginalUsername   string        `json:"originalUsername,omitempty"`
	OriginalRole       identity.Role `json:"originalRole,omitempty"`

	jwt.RegisteredClaims
}

// Impersonating reports whether the token carries an impersonation layer.
func (c *ClientClaims) Impersonating() bool {
	return c.OriginalIdentityID != ""
}

// TokenCodec signs and verifies client session tokens with HMAC-SHA256.
type TokenCodec struct {
	key []byte
}

// NewTokenCodec creates a codec for the given signing key.
func NewTokenCodec(key []byte) (*TokenCodec, error) {
	if len(key) < 32 {
		return nil, fmt.Errorf("token signing key must be at least 32 bytes, got %d", len(key))
	}
	return &TokenCodec{key: key}, nil
}

// Sign serializes and signs the claims.
func (c *TokenCodec) Sign(claims *ClientClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign client token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and decodes the claims. Any failure (bad
// signature, malformed blob, unexpected algorithm) collapses to
// ErrSessionInvalid; a forged token gets no more detail than a stale one.
func (c *TokenCodec) Parse(raw string) (*ClientClaims, error) {
	claims := &ClientClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return c.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionInvalid, err)
	}
	if !claims.LoggedIn || claims.IdentityID == "" || claims.Username == "" || !claims.Role.Valid() {
		return nil, ErrSessionInvalid
	}
	return claims, nil
}
