package middleware

import (
	"net/http"

	"github.com/opspanel/panelapi/internal/access"
	"github.com/opspanel/panelapi/internal/auth"
	"github.com/opspanel/panelapi/internal/services/iam"
)

// RequirePrincipal rejects requests that did not authenticate.
func RequirePrincipal() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := auth.PrincipalFromContext(r.Context()); !ok {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePageAccess gates a route group behind access to a named panel page.
// The check runs against the effective identity, so while impersonating it is
// the target's assignments that decide, not the original actor's.
func RequirePageAccess(svc iam.Service, page string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}
			if !svc.CanAccess(principal.Identity, access.Page(page)) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
