package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/opspanel/panelapi/internal/identity"
)

func testCodec(t *testing.T) *TokenCodec {
	t.Helper()
	codec, err := NewTokenCodec([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	return codec
}

func TestTokenCodecRoundTrip(t *testing.T) {
	codec := testCodec(t)

	in := &ClientClaims{
		LoggedIn:       true,
		IdentityID:     "id-1",
		Username:       "alice",
		Role:           identity.RoleAdmin,
		LastActivity:   time.Now().UnixMilli(),
		TimeoutMinutes: 5,
	}
	raw, err := codec.Sign(in)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	out, err := codec.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if out.IdentityID != "id-1" || out.Username != "alice" || out.Role != identity.RoleAdmin {
		t.Errorf("claims did not survive round trip: %+v", out)
	}
	if out.Impersonating() {
		t.Error("fresh token reports impersonation")
	}
}

func TestTokenCodecImpersonationFields(t *testing.T) {
	codec := testCodec(t)

	raw, err := codec.Sign(&ClientClaims{
		LoggedIn:           true,
		IdentityID:         "target",
		Username:           "bob",
		Role:               identity.RoleCustom,
		OriginalIdentityID: "actor",
		OriginalUsername:   "alice",
		OriginalRole:       identity.RoleAdministrator,
	})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	out, err := codec.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !out.Impersonating() {
		t.Fatal("impersonation fields lost")
	}
	if out.OriginalUsername != "alice" || out.OriginalRole != identity.RoleAdministrator {
		t.Errorf("original actor fields wrong: %+v", out)
	}
}

func TestTokenCodecRejectsTampering(t *testing.T) {
	codec := testCodec(t)

	raw, err := codec.Sign(&ClientClaims{
		LoggedIn:   true,
		IdentityID: "id-1",
		Username:   "alice",
		Role:       identity.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	// Flip a character in the payload segment.
	parts := strings.Split(raw, ".")
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	if _, err := codec.Parse(tampered); !errors.Is(err, ErrSessionInvalid) {
		t.Errorf("tampered token error = %v, want ErrSessionInvalid", err)
	}
}

func TestTokenCodecRejectsOtherKey(t *testing.T) {
	codec := testCodec(t)
	other, err := NewTokenCodec([]byte("ffffffffffffffffffffffffffffffff"))
	if err != nil {
		t.Fatal(err)
	}

	raw, err := other.Sign(&ClientClaims{
		LoggedIn:   true,
		IdentityID: "id-1",
		Username:   "alice",
		Role:       identity.RoleAdmin,
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := codec.Parse(raw); !errors.Is(err, ErrSessionInvalid) {
		t.Errorf("foreign-key token error = %v, want ErrSessionInvalid", err)
	}
}

func TestTokenCodecRejectsGarbageAndLoggedOut(t *testing.T) {
	codec := testCodec(t)

	if _, err := codec.Parse("not-a-token"); !errors.Is(err, ErrSessionInvalid) {
		t.Errorf("garbage token error = %v, want ErrSessionInvalid", err)
	}

	raw, err := codec.Sign(&ClientClaims{LoggedIn: false, IdentityID: "id", Username: "x", Role: identity.RoleAdmin})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := codec.Parse(raw); !errors.Is(err, ErrSessionInvalid) {
		t.Errorf("logged-out token error = %v, want ErrSessionInvalid", err)
	}
}

func TestNewTokenCodecKeyLength(t *testing.T) {
	if _, err := NewTokenCodec([]byte("short")); err == nil {
		t.Error("short signing key accepted")
	}
}

func TestSessionExpiredAt(t *testing.T) {
	base := time.Now()
	s := &Session{
		LastActivity:             base,
		InactivityTimeoutMinutes: 5,
	}

	if s.ExpiredAt(base.Add(299 * time.Second)) {
		t.Error("session expired before timeout")
	}
	if !s.ExpiredAt(base.Add(301 * time.Second)) {
		t.Error("session still valid past timeout")
	}

	s.DisableInactivityExpiry = true
	if s.ExpiredAt(base.Add(48 * time.Hour)) {
		t.Error("expiry-disabled session expired")
	}
}
