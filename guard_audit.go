package authguard

import (
	"context"
	"errors"

	"github.com/MrEthical07/authguard/session"
)

const (
	auditEventCheck             = "guard_check"
	auditEventLogout            = "guard_logout"
	auditEventInactivityTimeout = "guard_inactivity_timeout"
	auditEventFocusExpired      = "guard_focus_expired"
	auditEventLogoutDeclined    = "guard_logout_declined"
	auditEventCrossTabLogout    = "guard_cross_tab_logout"
)

// AuditErrorCode is the stable error classification carried in audit events.
type AuditErrorCode string

const (
	auditErrAbsentCredential   AuditErrorCode = "absent_credential"
	auditErrStorageUnavailable AuditErrorCode = "storage_unavailable"
	auditErrCorruptProfile     AuditErrorCode = "corrupt_profile"
	auditErrTokenInvalid       AuditErrorCode = "invalid_token"
	auditErrInactivity         AuditErrorCode = "inactivity_expired"
	auditErrLogoutDeclined     AuditErrorCode = "logout_declined"
	auditErrCrossTab           AuditErrorCode = "cross_tab_logout"
	auditErrInternal           AuditErrorCode = "internal_error"
)

// emitAudit must be called with g.mu held so State reflects the transition.
func (g *Guard) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	reason string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if g == nil || g.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: g.clock.Now().UTC(),
		EventType: eventType,
		GuardID:   g.id,
		State:     g.state.String(),
		Reason:    reason,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	g.audit.Emit(ctx, event)
}

// flushAuditLocked waits, bounded by Audit.FlushTimeout, for queued events to
// reach the sink. It runs after every redirect since the host page is gone
// once the guard returns.
func (g *Guard) flushAuditLocked(ctx context.Context) {
	if g.audit == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.config.Audit.FlushTimeout)
	defer cancel()
	if err := g.audit.Flush(ctx); err != nil {
		g.metrics.Inc(MetricAuditFlushTimeout)
		g.logger.Warn("authguard: audit events still queued at redirect", "error", err)
	}
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrCrossTabLogout):
		return auditErrCrossTab
	case errors.Is(err, session.ErrUnavailable):
		return auditErrStorageUnavailable
	case errors.Is(err, ErrAbsentCredential):
		return auditErrAbsentCredential
	case errors.Is(err, ErrCorruptProfile):
		return auditErrCorruptProfile
	case errors.Is(err, ErrTokenInvalid):
		return auditErrTokenInvalid
	case errors.Is(err, ErrInactivityExpired):
		return auditErrInactivity
	case errors.Is(err, ErrLogoutDeclined):
		return auditErrLogoutDeclined
	default:
		return auditErrInternal
	}
}
