package server

import (
	"encoding/json"
	"net/http"

	"github.com/opspanel/panelapi/internal/auth"
	"github.com/opspanel/panelapi/internal/config"
	"github.com/opspanel/panelapi/internal/identity"
	"github.com/opspanel/panelapi/internal/services/iam"
)

// LoginRequest represents credentials for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// IdentityResponse represents identity data in API responses. Password
// material never leaves the server.
type IdentityResponse struct {
	ID                     string   `json:"id"`
	Username               string   `json:"username"`
	Role                   string   `json:"role"`
	Status                 string   `json:"status"`
	Projects               []string `json:"projects,omitempty"`
	AssignedPages          []string `json:"assignedPages,omitempty"`
	AllowedSettingsModules []string `json:"allowedSettingsModules,omitempty"`
	LastLogin              *int64   `json:"lastLogin,omitempty"`
}

// ImpersonationResponse names the real actor behind an impersonated session.
type ImpersonationResponse struct {
	OriginalUsername string `json:"originalUsername"`
	OriginalRole     string `json:"originalRole"`
}

// SessionResponse mirrors the non-secret parts of the session record.
type SessionResponse struct {
	LastActivity             int64 `json:"lastActivity"`
	InactivityTimeoutMinutes int   `json:"inactivityTimeoutMinutes"`
	DisableInactivityExpiry  bool  `json:"disableInactivityExpiry"`
}

// WhoamiResponse is the response for GET /auth/whoami and for the
// impersonation endpoints.
type WhoamiResponse struct {
	User          IdentityResponse       `json:"user"`
	Session       SessionResponse        `json:"session"`
	Impersonation *ImpersonationResponse `json:"impersonation,omitempty"`
}

func identityResponse(ident *identity.Identity) IdentityResponse {
	resp := IdentityResponse{
		ID:                     ident.ID,
		Username:               ident.Username,
		Role:                   string(ident.Role),
		Status:                 string(ident.Status),
		Projects:               ident.Projects,
		AssignedPages:          ident.AssignedPages,
		AllowedSettingsModules: ident.AllowedSettingsModules,
	}
	if ident.LastLogin != nil {
		ms := ident.LastLogin.UnixMilli()
		resp.LastLogin = &ms
	}
	return resp
}

func principalResponse(principal *auth.Principal) WhoamiResponse {
	resp := WhoamiResponse{
		User: identityResponse(principal.Identity),
		Session: SessionResponse{
			LastActivity:             principal.Session.LastActivity.UnixMilli(),
			InactivityTimeoutMinutes: principal.Session.InactivityTimeoutMinutes,
			DisableInactivityExpiry:  principal.Session.DisableInactivityExpiry,
		},
	}
	if principal.Impersonation != nil {
		resp.Impersonation = &ImpersonationResponse{
			OriginalUsername: principal.Impersonation.OriginalUsername,
			OriginalRole:     string(principal.Impersonation.OriginalRole),
		}
	}
	return resp
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// HandleLogin authenticates username/password credentials and establishes a
// session: a server-side record plus the signed cookie the client holds.
func HandleLogin(svc iam.Service, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Username == "" || req.Password == "" {
			http.Error(w, "Missing username or password", http.StatusBadRequest)
			return
		}

		principal, token, err := svc.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			writeServiceError(w, err, cfg.Debug)
			return
		}

		auth.SetSessionCookie(w, r, token)
		writeJSON(w, principalResponse(principal))
	}
}

// HandleLogout destroys the caller's session and clears the cookie.
// Logging out an already-dead session still succeeds.
func HandleLogout(svc iam.Service, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			// No live session; clearing the cookie is all that is left to do.
			auth.ClearSessionCookie(w, r)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("Logged out"))
			return
		}

		if err := svc.Logout(r.Context(), principal); err != nil {
			writeServiceError(w, err, cfg.Debug)
			return
		}

		auth.ClearSessionCookie(w, r)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Logged out"))
	}
}

// HandleWhoAmI returns the authenticated identity and session metadata. The
// session middleware has already re-validated the token against the server
// record, so this is a pure read of the request principal.
func HandleWhoAmI() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		writeJSON(w, principalResponse(principal))
	}
}

// ImpersonateRequest names the identity to act as.
type ImpersonateRequest struct {
	ID string `json:"id"`
}

// HandleImpersonate switches the caller's session to act as another identity.
// The response cookie carries the impersonated token; stopping restores the
// original session.
func HandleImpersonate(svc iam.Service, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		var req ImpersonateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.ID == "" {
			http.Error(w, "Missing identity id", http.StatusBadRequest)
			return
		}

		impersonated, token, err := svc.StartImpersonation(r.Context(), principal, req.ID)
		if err != nil {
			writeServiceError(w, err, cfg.Debug)
			return
		}

		auth.SetSessionCookie(w, r, token)
		writeJSON(w, principalResponse(impersonated))
	}
}

// HandleImpersonateStop ends an impersonation and restores the original
// actor's session.
func HandleImpersonateStop(svc iam.Service, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		restored, token, err := svc.StopImpersonation(r.Context(), principal)
		if err != nil {
			writeServiceError(w, err, cfg.Debug)
			return
		}

		auth.SetSessionCookie(w, r, token)
		writeJSON(w, principalResponse(restored))
	}
}
