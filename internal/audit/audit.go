// Package audit provides the fire-and-forget event sink consumed by the
// session and identity core. Recording never fails and never blocks the
// operation being recorded.
package audit

import (
	"go.uber.org/zap"

	"github.com/opspanel/panelapi/internal/identity"
)

// Event identifies what happened.
type Event string

const (
	EventLogin                Event = "login"
	EventLoginFailed          Event = "login_failed"
	EventLogout               Event = "logout"
	EventSessionExpired       Event = "session_expired"
	EventSessionInvalid       Event = "session_invalid"
	EventImpersonationStarted Event = "impersonation_started"
	EventImpersonationStopped Event = "impersonation_stopped"
	EventImpersonationDenied  Event = "impersonation_denied"
	EventIdentityCreated      Event = "identity_created"
	EventIdentityUpdated      Event = "identity_updated"
	EventIdentityDeleted      Event = "identity_deleted"
)

// Severity grades an event.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Recorder is the audit sink. Implementations must not return errors to the
// caller; a lost audit record never fails the recorded operation.
type Recorder interface {
	Record(actor string, role identity.Role, event Event, severity Severity, details map[string]any)
}

// ZapRecorder writes audit records as structured log entries.
type ZapRecorder struct {
	logger *zap.Logger
}

// NewZapRecorder creates a zap-backed audit recorder.
func NewZapRecorder(logger *zap.Logger) *ZapRecorder {
	return &ZapRecorder{logger: logger.Named("audit")}
}

func (r *ZapRecorder) Record(actor string, role identity.Role, event Event, severity Severity, details map[string]any) {
	fields := []zap.Field{
		zap.String("actor", actor),
		zap.String("role", string(role)),
		zap.String("event", string(event)),
		zap.String("severity", string(severity)),
	}
	for k, v := range details {
		fields = append(fields, zap.Any(k, v))
	}
	switch severity {
	case SeverityError:
		r.logger.Error(string(event), fields...)
	case SeverityWarning:
		r.logger.Warn(string(event), fields...)
	default:
		r.logger.Info(string(event), fields...)
	}
}

// NopRecorder discards every record. Used in tests and as a safe default.
type NopRecorder struct{}

func (NopRecorder) Record(string, identity.Role, Event, Severity, map[string]any) {}
