package authcore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arkoze/authcore/internal"
)

const (
	rateOpRegister = "register"
	rateOpLogin    = "login"
)

// BeginRegistration parks the not-yet-verified account behind a fresh
// opaque token and mails the verification link. Nothing durable is
// written: if the link is never followed, the record evaporates with its
// TTL.
//
// The rate marker for (IP, email) is set only after the whole operation
// has succeeded, mail included, so a transient failure does not cost the
// caller their window.
func (e *Engine) BeginRegistration(ctx context.Context, name, email, password string) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}
	e.metricInc(MetricRegisterRequest)

	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" {
		return "", ErrInvalidCredentials
	}

	ip := clientIPFromContext(ctx)

	if err := e.limiter.Allow(ctx, rateOpRegister, ip, email); err != nil {
		if errors.Is(err, errRateLimited) {
			e.metricInc(MetricRegisterRateLimited)
			e.emitAudit(ctx, auditEventRegisterRateLimited, false, "", email, ErrRegistrationRateLimited, nil)
			return "", ErrRegistrationRateLimited
		}
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// Cheap duplicate precheck before the expensive hash. The authoritative
	// check is the store's unique constraint at commit time.
	if _, err := e.users.FindByEmail(ctx, email); err == nil {
		e.metricInc(MetricRegisterDuplicate)
		e.emitAudit(ctx, auditEventRegisterRequest, false, "", email, ErrUserExists, nil)
		return "", ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return "", err
	}

	passwordHash, err := e.passwordHash.Hash(password)
	if err != nil {
		return "", err
	}

	token, err := internal.NewVerificationToken()
	if err != nil {
		return "", err
	}

	record := &pendingRegistration{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
	}
	if err := e.pendingStore.Save(ctx, token, record, e.config.Registration.PendingTTL); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	body := verifyEmailBody(e.config.Mail, token, e.config.Registration.PendingTTL)
	if err := e.notifier.Send(ctx, email, e.config.Mail.VerifySubject, body); err != nil {
		// The pending record stays; the caller may retry delivery out of
		// band within the TTL. The rate window is not consumed.
		e.metricInc(MetricNotifyFailure)
		e.emitAudit(ctx, auditEventNotifyFailure, false, "", email, ErrNotifyFailed, nil)
		return "", fmt.Errorf("%w: %v", ErrNotifyFailed, err)
	}

	if err := e.limiter.MarkUsed(ctx, rateOpRegister, ip, email); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.emitAudit(ctx, auditEventRegisterRequest, true, "", email, nil, nil)

	return token, nil
}

// CompleteRegistration consumes a verification token and commits the
// durable account. The consume is a server-side take: at most one caller
// ever observes a given token, and absent, consumed, and expired tokens
// all fail identically with ErrVerificationExpired.
func (e *Engine) CompleteRegistration(ctx context.Context, token string) (*User, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	var start time.Time
	if e.metrics.LatencyEnabled() {
		start = time.Now()
		defer func() {
			e.metrics.Observe(MetricVerifyLatency, time.Since(start))
		}()
	}

	if !internal.ValidVerificationToken(token) {
		e.metricInc(MetricRegisterVerifyFailure)
		e.emitAudit(ctx, auditEventRegisterVerify, false, "", "", ErrVerificationExpired, nil)
		return nil, ErrVerificationExpired
	}

	record, err := e.pendingStore.Take(ctx, token)
	if err != nil {
		if errors.Is(err, errPendingNotFound) {
			e.metricInc(MetricRegisterVerifyFailure)
			e.emitAudit(ctx, auditEventRegisterVerify, false, "", "", ErrVerificationExpired, nil)
			return nil, ErrVerificationExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// Re-check: an account may have been created for this email while the
	// link sat in the inbox.
	if _, err := e.users.FindByEmail(ctx, record.Email); err == nil {
		e.metricInc(MetricRegisterDuplicate)
		e.emitAudit(ctx, auditEventRegisterVerify, false, "", record.Email, ErrUserExists, nil)
		return nil, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	user, err := e.users.Create(ctx, record.Name, record.Email, record.PasswordHash)
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			e.metricInc(MetricRegisterDuplicate)
			e.emitAudit(ctx, auditEventRegisterVerify, false, "", record.Email, ErrUserExists, nil)
			return nil, ErrUserExists
		}
		return nil, err
	}

	e.metricInc(MetricRegisterVerified)
	e.emitAudit(ctx, auditEventRegisterVerify, true, user.ID, user.Email, nil, nil)

	return user, nil
}

// normalizeEmail is the single canonical form used for store keys, rate
// markers, and lookups.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
