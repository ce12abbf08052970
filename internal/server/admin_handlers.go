package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opspanel/panelapi/internal/auth"
	"github.com/opspanel/panelapi/internal/config"
	"github.com/opspanel/panelapi/internal/identity"
	"github.com/opspanel/panelapi/internal/services/iam"
)

// CreateIdentityRequest is the body for POST /admin/identities.
type CreateIdentityRequest struct {
	Username               string   `json:"username"`
	Password               string   `json:"password"`
	Role                   string   `json:"role"`
	Projects               []string `json:"projects"`
	AssignedPages          []string `json:"assignedPages"`
	AllowedSettingsModules []string `json:"allowedSettingsModules"`
}

// UpdateIdentityRequest is the body for PUT /admin/identities/{id}. Absent
// fields are left unchanged.
type UpdateIdentityRequest struct {
	Username               *string   `json:"username"`
	Password               *string   `json:"password"`
	Role                   *string   `json:"role"`
	Status                 *string   `json:"status"`
	Projects               *[]string `json:"projects"`
	AssignedPages          *[]string `json:"assignedPages"`
	AllowedSettingsModules *[]string `json:"allowedSettingsModules"`
}

// HandleListIdentities handles GET /admin/identities. The owner record is
// never included.
func HandleListIdentities(svc iam.Service, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identities, err := svc.ListIdentities(r.Context())
		if err != nil {
			writeServiceError(w, err, cfg.Debug)
			return
		}

		resp := make([]IdentityResponse, 0, len(identities))
		for i := range identities {
			resp = append(resp, identityResponse(&identities[i]))
		}
		writeJSON(w, resp)
	}
}

// HandleCreateIdentity handles POST /admin/identities.
func HandleCreateIdentity(svc iam.Service, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := auth.PrincipalFromContext(r.Context())

		var req CreateIdentityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		ident, err := svc.CreateIdentity(r.Context(), principal, iam.CreateIdentityInput{
			Username:               req.Username,
			Password:               req.Password,
			Role:                   identity.Role(req.Role),
			Projects:               req.Projects,
			AssignedPages:          req.AssignedPages,
			AllowedSettingsModules: req.AllowedSettingsModules,
		})
		if err != nil {
			writeServiceError(w, err, cfg.Debug)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(identityResponse(ident))
	}
}

// HandleUpdateIdentity handles PUT /admin/identities/{id}. A username or role
// change migrates the identity, preference, and session files to the new
// storage key.
func HandleUpdateIdentity(svc iam.Service, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := auth.PrincipalFromContext(r.Context())
		id := chi.URLParam(r, "id")

		var req UpdateIdentityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		input := iam.UpdateIdentityInput{
			Username: req.Username,
			Password: req.Password,
		}
		if req.Role != nil {
			role := identity.Role(*req.Role)
			input.Role = &role
		}
		if req.Status != nil {
			status := identity.Status(*req.Status)
			input.Status = &status
		}
		if req.Projects != nil {
			input.Projects = req.Projects
		}
		if req.AssignedPages != nil {
			input.AssignedPages = req.AssignedPages
		}
		if req.AllowedSettingsModules != nil {
			input.AllowedSettingsModules = req.AllowedSettingsModules
		}

		ident, err := svc.UpdateIdentity(r.Context(), principal, id, input)
		if err != nil {
			writeServiceError(w, err, cfg.Debug)
			return
		}
		writeJSON(w, identityResponse(ident))
	}
}

// HandleDeleteIdentity handles DELETE /admin/identities/{id}. All three files
// tied to the identity are removed. The owner cannot be deleted.
func HandleDeleteIdentity(svc iam.Service, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := auth.PrincipalFromContext(r.Context())
		id := chi.URLParam(r, "id")

		if err := svc.DeleteIdentity(r.Context(), principal, id); err != nil {
			writeServiceError(w, err, cfg.Debug)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
