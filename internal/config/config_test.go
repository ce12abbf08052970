package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("PANEL_OWNER_PASSWORD", "owner-secret")
	t.Setenv("PANEL_VAULT_SECRET", "vault-secret")
	t.Setenv("PANEL_TOKEN_SIGNING_KEY", "0123456789abcdef0123456789abcdef")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "localhost:8080", cfg.ServerAddr)
	assert.Equal(t, "root", cfg.OwnerUsername)
	assert.Equal(t, 30, cfg.SessionTimeoutMinutes)
	assert.False(t, cfg.DisableSessionExpiry)
	assert.False(t, cfg.Debug)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PANEL_DATA_DIR", "/var/lib/panel")
	t.Setenv("PANEL_OWNER_USERNAME", "chief")
	t.Setenv("SESSION_TIMEOUT_MINUTES", "5")
	t.Setenv("DISABLE_SESSION_EXPIRY", "true")
	t.Setenv("DEBUG", "1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/panel", cfg.DataDir)
	assert.Equal(t, "chief", cfg.OwnerUsername)
	assert.Equal(t, 5, cfg.SessionTimeoutMinutes)
	assert.True(t, cfg.DisableSessionExpiry)
	assert.True(t, cfg.Debug)
}

func TestLoadMissingOwnerPassword(t *testing.T) {
	t.Setenv("PANEL_OWNER_PASSWORD", "")
	t.Setenv("PANEL_VAULT_SECRET", "vault-secret")
	t.Setenv("PANEL_TOKEN_SIGNING_KEY", "0123456789abcdef0123456789abcdef")

	_, err := Load()
	assert.ErrorContains(t, err, "PANEL_OWNER_PASSWORD")
}

func TestLoadShortSigningKey(t *testing.T) {
	t.Setenv("PANEL_OWNER_PASSWORD", "owner-secret")
	t.Setenv("PANEL_VAULT_SECRET", "vault-secret")
	t.Setenv("PANEL_TOKEN_SIGNING_KEY", "short")

	_, err := Load()
	assert.ErrorContains(t, err, "PANEL_TOKEN_SIGNING_KEY")
}

func TestLoadRejectsNonPositiveTimeout(t *testing.T) {
	setRequired(t)
	t.Setenv("SESSION_TIMEOUT_MINUTES", "0")

	_, err := Load()
	assert.ErrorContains(t, err, "SESSION_TIMEOUT_MINUTES")
}

func TestSettingsSnapshot(t *testing.T) {
	cfg := &Config{SessionTimeoutMinutes: 15, DisableSessionExpiry: true, Debug: true}
	s := cfg.Settings()
	assert.Equal(t, 15, s.SessionInactivityTimeoutMinutes)
	assert.True(t, s.DisableInactivityExpiry)
	assert.True(t, s.DebugMode)
}
