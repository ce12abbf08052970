package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/opspanel/panelapi/internal/auth"
)

// writeServiceError maps a service error onto an HTTP status and a
// client-safe message. Invalid credentials and inactive accounts present the
// same message to prevent username enumeration. Raw error detail is only
// exposed when debug mode is on; the audit sink always has the full record.
func writeServiceError(w http.ResponseWriter, err error, debug bool) {
	var status int
	var msg string

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrAccountInactive):
		status, msg = http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, auth.ErrSessionExpired):
		status, msg = http.StatusUnauthorized, "Session expired"
	case errors.Is(err, auth.ErrSessionInvalid):
		status, msg = http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, auth.ErrPermissionDenied):
		status, msg = http.StatusForbidden, "Forbidden"
	case errors.Is(err, auth.ErrIdentityNotFound):
		status, msg = http.StatusNotFound, "Identity not found"
	case errors.Is(err, auth.ErrValidationFailed):
		status, msg = http.StatusBadRequest, "Invalid request"
	default:
		log.Printf("internal error: %v", err)
		status, msg = http.StatusInternalServerError, "Internal server error"
	}

	if debug {
		msg = msg + ": " + err.Error()
	}
	http.Error(w, msg, status)
}
