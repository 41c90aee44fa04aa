package authcore

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventRegisterRequest     = "register_request"
	auditEventRegisterRateLimited = "register_rate_limited"
	auditEventRegisterVerify      = "register_verify"
	auditEventLoginRequest        = "login_request"
	auditEventLoginRateLimited    = "login_rate_limited"
	auditEventOTPIssued           = "otp_issued"
	auditEventOTPVerify           = "otp_verify"
	auditEventTokensIssued        = "tokens_issued"
	auditEventRefresh             = "refresh"
	auditEventLogout              = "logout"
	auditEventCSRFRejected        = "csrf_rejected"
	auditEventCSRFRotated         = "csrf_rotated"
	auditEventNotifyFailure       = "notify_failure"
)

// AuditErrorCode is the machine-readable rejection reason attached to
// failed audit events.
type AuditErrorCode string

const (
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrExpired            AuditErrorCode = "expired"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrOTPMismatch        AuditErrorCode = "otp_mismatch"
	auditErrAttemptsExceeded   AuditErrorCode = "attempts_exceeded"
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrUnauthorized       AuditErrorCode = "unauthorized"
	auditErrNotifyFailed       AuditErrorCode = "notify_failed"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrRegistrationRateLimited), errors.Is(err, ErrLoginRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrVerificationExpired), errors.Is(err, ErrOTPExpired):
		return auditErrExpired
	case errors.Is(err, ErrUserExists):
		return auditErrDuplicate
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrOTPMismatch):
		return auditErrOTPMismatch
	case errors.Is(err, ErrOTPAttemptsExceeded):
		return auditErrAttemptsExceeded
	case errors.Is(err, ErrRefreshInvalid), errors.Is(err, ErrCSRFInvalid):
		return auditErrInvalidToken
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrNotifyFailed):
		return auditErrNotifyFailed
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}

// emitAudit fans one event out to the dispatcher. The metadata builder is
// lazy so the map is only allocated when auditing is on.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	email string,
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

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}
