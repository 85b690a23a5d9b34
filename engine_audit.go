package sentinel

import (
	"context"
	"errors"

	internalaudit "github.com/sentinelforge/sentinel/internal/audit"
	"github.com/sentinelforge/sentinel/internal/limiters"
)

const (
	auditEventSessionCreated        = "session_created"
	auditEventSessionRevoked        = "session_revoked"
	auditEventSessionAutoRevoked    = "session_auto_revoked"
	auditEventSessionsRevokedAll    = "sessions_revoked_all"
	auditEventSessionsRevokedDevice = "sessions_revoked_device"
	auditEventSessionsSwept         = "sessions_swept"
	auditEventPasswordChanged       = "password_changed"
	auditEventPasswordChangeDenied  = "password_change_denied"
	auditEventSignInBlocked         = "sign_in_blocked"
	auditEventMFADemanded           = "mfa_demanded"
	auditEventLockoutTriggered      = "lockout_triggered"
)

// AuditErrorCode is the normalized error tag recorded on failed audit
// events, stable across error message changes.
type AuditErrorCode string

const (
	auditErrUserNotFound       AuditErrorCode = "user_not_found"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrWeakPassword       AuditErrorCode = "password_policy"
	auditErrPasswordReuse      AuditErrorCode = "password_reuse"
	auditErrSignInBlocked      AuditErrorCode = "sign_in_blocked"
	auditErrMFARequired        AuditErrorCode = "mfa_required"
	auditErrSessionNotFound    AuditErrorCode = "session_not_found"
	auditErrSessionRevoked     AuditErrorCode = "session_revoked"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

// emitAudit builds and queues one audit event. metadataBuilder is only
// invoked when auditing is enabled, so callers can defer map construction.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	category string,
	success bool,
	userID string,
	sessionToken string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	status := internalaudit.StatusSuccess
	if !success {
		status = internalaudit.StatusFailure
	}

	event := AuditEvent{
		EventType:    eventType,
		Status:       status,
		Category:     category,
		UserID:       userID,
		SessionToken: sessionToken,
		IP:           clientIPFromContext(ctx),
		UserAgent:    userAgentFromContext(ctx),
		Metadata:     metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrWeakPassword):
		return auditErrWeakPassword
	case errors.Is(err, ErrPasswordReuse):
		return auditErrPasswordReuse
	case errors.Is(err, ErrSignInBlocked):
		return auditErrSignInBlocked
	case errors.Is(err, ErrMFARequired):
		return auditErrMFARequired
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrSessionRevoked):
		return auditErrSessionRevoked
	case errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, limiters.ErrLockoutUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
