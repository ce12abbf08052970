package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/opspanel/panelapi/internal/auth"
	"github.com/opspanel/panelapi/internal/services/iam"
)

// AuthnDependencies provides the collaborators for session authentication.
type AuthnDependencies struct {
	IAM iam.Service
}

// NewSessionAuthMiddleware creates middleware that resolves the session cookie
// into an authenticated principal.
//
// Flow:
//  1. Skip public paths (login, health) and CORS preflight.
//  2. Read the panel.session cookie. No cookie: pass through unauthenticated;
//     handlers that need a principal reject the request themselves.
//  3. Validate the token against the server-side session record. Expired or
//     invalid sessions get the cookie cleared and a 401.
//  4. On success, store the principal in the request context and refresh the
//     cookie with the re-signed token (its lastActivity mirror was bumped).
func NewSessionAuthMiddleware(deps AuthnDependencies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if shouldSkipSessionAuth(r) {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(auth.SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			principal, refreshed, err := deps.IAM.Validate(ctx, cookie.Value)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrSessionExpired):
					auth.ClearSessionCookie(w, r)
					http.Error(w, "Session expired", http.StatusUnauthorized)
				case errors.Is(err, auth.ErrSessionInvalid):
					auth.ClearSessionCookie(w, r)
					http.Error(w, "Authentication required", http.StatusUnauthorized)
				default:
					log.Printf("session validation failed: %v", err)
					http.Error(w, "Authentication error", http.StatusInternalServerError)
				}
				return
			}

			auth.SetSessionCookie(w, r, refreshed)
			ctx = auth.SetPrincipalContext(ctx, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// shouldSkipSessionAuth determines if session authentication should be skipped
// for the request.
func shouldSkipSessionAuth(r *http.Request) bool {
	if r == nil {
		return false
	}
	if r.Method == http.MethodOptions {
		return true
	}

	publicPaths := []string{
		"/health",
		"/auth/login",
	}
	for _, p := range publicPaths {
		if r.URL.Path == p {
			return true
		}
	}
	return false
}
