package config

import (
	"fmt"
	"os"
)

// Config holds the application configuration
type Config struct {
	// Directory holding the encrypted record store
	DataDir string

	// Server bind address (host:port)
	ServerAddr string

	// Owner identity credentials. The owner record is reconciled from these
	// values on every owner login attempt, so a changed password takes
	// effect on the next login without a migration step.
	OwnerUsername string
	OwnerPassword string

	// Secret the encrypted blob store derives its key from
	VaultSecret string

	// HMAC key for signing client session tokens
	TokenSigningKey string

	// Session inactivity timeout defaults, snapshotted into both session
	// artifacts at login time
	SessionTimeoutMinutes int
	DisableSessionExpiry  bool

	// Enable debug logging and verbose error responses
	Debug bool
}

// Settings is the global-settings snapshot read at login.
type Settings struct {
	SessionInactivityTimeoutMinutes int
	DisableInactivityExpiry         bool
	DebugMode                       bool
}

// Settings returns the current global session settings.
func (c *Config) Settings() Settings {
	return Settings{
		SessionInactivityTimeoutMinutes: c.SessionTimeoutMinutes,
		DisableInactivityExpiry:         c.DisableSessionExpiry,
		DebugMode:                       c.Debug,
	}
}

// Load reads configuration from environment variables with fallback defaults
func Load() (*Config, error) {
	cfg := &Config{
		DataDir:               getEnv("PANEL_DATA_DIR", "data"),
		ServerAddr:            getEnv("SERVER_ADDR", "localhost:8080"),
		OwnerUsername:         getEnv("PANEL_OWNER_USERNAME", "root"),
		OwnerPassword:         getEnv("PANEL_OWNER_PASSWORD", ""),
		VaultSecret:           getEnv("PANEL_VAULT_SECRET", ""),
		TokenSigningKey:       getEnv("PANEL_TOKEN_SIGNING_KEY", ""),
		SessionTimeoutMinutes: getEnvInt("SESSION_TIMEOUT_MINUTES", 30),
		DisableSessionExpiry:  getEnvBool("DISABLE_SESSION_EXPIRY", false),
		Debug:                 getEnvBool("DEBUG", false),
	}

	if cfg.OwnerUsername == "" {
		return nil, fmt.Errorf("PANEL_OWNER_USERNAME must not be empty")
	}
	if cfg.OwnerPassword == "" {
		return nil, fmt.Errorf("PANEL_OWNER_PASSWORD is required")
	}
	if cfg.VaultSecret == "" {
		return nil, fmt.Errorf("PANEL_VAULT_SECRET is required")
	}
	if len(cfg.TokenSigningKey) < 32 {
		return nil, fmt.Errorf("PANEL_TOKEN_SIGNING_KEY is required and must be at least 32 characters")
	}
	if cfg.SessionTimeoutMinutes <= 0 {
		return nil, fmt.Errorf("SESSION_TIMEOUT_MINUTES must be positive, got %d", cfg.SessionTimeoutMinutes)
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
