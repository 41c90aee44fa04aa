package authcore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/arkoze/authcore/internal"
)

// BeginLogin checks the password factor and, on success, issues a fresh
// one-time code to the account's email. Issuing overwrites any challenge
// already outstanding for the identity, so only the newest code can ever
// match.
//
// Unknown email and wrong password fail identically with
// ErrInvalidCredentials. As with registration, the rate marker is set
// only after the mail has been handed off.
func (e *Engine) BeginLogin(ctx context.Context, email, password string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	email = normalizeEmail(email)
	if email == "" || password == "" {
		e.metricInc(MetricLoginFailure)
		return ErrInvalidCredentials
	}

	ip := clientIPFromContext(ctx)

	if err := e.limiter.Allow(ctx, rateOpLogin, ip, email); err != nil {
		if errors.Is(err, errRateLimited) {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, auditEventLoginRateLimited, false, "", email, ErrLoginRateLimited, nil)
			return ErrLoginRateLimited
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginRequest, false, "", email, ErrInvalidCredentials, nil)
			return ErrInvalidCredentials
		}
		return err
	}

	ok, err := e.passwordHash.Verify(password, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginRequest, false, user.ID, email, ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}

	code, err := internal.NewOTP(e.config.OTP.Digits)
	if err != nil {
		return err
	}

	challenge := &otpChallenge{
		CodeHash:  internal.HashSecret(code),
		ExpiresAt: time.Now().Add(e.config.OTP.ChallengeTTL).Unix(),
	}
	if err := e.otpStore.Save(ctx, email, challenge, e.config.OTP.ChallengeTTL); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	body := otpEmailBody(e.config.Mail, code, e.config.OTP.ChallengeTTL)
	if err := e.notifier.Send(ctx, email, e.config.Mail.OTPSubject, body); err != nil {
		// The challenge stays valid until its TTL; the rate window is not
		// consumed, so the caller can retry immediately.
		e.metricInc(MetricNotifyFailure)
		e.emitAudit(ctx, auditEventNotifyFailure, false, user.ID, email, ErrNotifyFailed, nil)
		return fmt.Errorf("%w: %v", ErrNotifyFailed, err)
	}

	if err := e.limiter.MarkUsed(ctx, rateOpLogin, ip, email); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricLoginSuccess)
	e.metricInc(MetricOTPIssued)
	e.emitAudit(ctx, auditEventOTPIssued, true, user.ID, email, nil, nil)

	return nil
}

// VerifyOTP applies one attempt against the outstanding challenge and, on
// a match, issues the full credential set: access and refresh tokens plus
// a fresh anti-forgery token. The challenge is single-use; a match
// destroys it, and a replay of the same code fails with ErrOTPExpired.
//
// A mismatch keeps the challenge alive until the attempt cap, after which
// it is destroyed and the caller must restart the login.
func (e *Engine) VerifyOTP(ctx context.Context, email, code string) (*Credentials, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	email = normalizeEmail(email)

	// Malformed input cannot match any stored digest; reject it without
	// charging an attempt against the real challenge.
	if !internal.IsNumeric(code) || len(code) != e.config.OTP.Digits {
		e.metricInc(MetricOTPMismatch)
		e.emitAudit(ctx, auditEventOTPVerify, false, "", email, ErrOTPMismatch, nil)
		return nil, ErrOTPMismatch
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.emitAudit(ctx, auditEventOTPVerify, false, "", email, ErrInvalidCredentials, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	err = e.otpStore.Consume(ctx, email, internal.HashSecret(code), e.config.OTP.MaxAttempts)
	if err != nil {
		switch {
		case errors.Is(err, errOTPNotFound):
			e.metricInc(MetricOTPExpired)
			e.emitAudit(ctx, auditEventOTPVerify, false, user.ID, email, ErrOTPExpired, nil)
			return nil, ErrOTPExpired
		case errors.Is(err, errOTPMismatch):
			e.metricInc(MetricOTPMismatch)
			e.emitAudit(ctx, auditEventOTPVerify, false, user.ID, email, ErrOTPMismatch, nil)
			return nil, ErrOTPMismatch
		case errors.Is(err, errOTPAttemptsExceeded):
			e.metricInc(MetricOTPAttemptsExceeded)
			e.emitAudit(ctx, auditEventOTPVerify, false, user.ID, email, ErrOTPAttemptsExceeded, func() map[string]string {
				return map[string]string{"max_attempts": strconv.Itoa(e.config.OTP.MaxAttempts)}
			})
			return nil, ErrOTPAttemptsExceeded
		default:
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	e.metricInc(MetricOTPMatched)

	creds, err := e.issueCredentials(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricTokensIssued)
	e.emitAudit(ctx, auditEventTokensIssued, true, user.ID, email, nil, nil)

	return creds, nil
}

// issueCredentials mints the token triple for uid.
func (e *Engine) issueCredentials(ctx context.Context, uid string) (*Credentials, error) {
	access, err := e.jwtManager.CreateAccess(uid)
	if err != nil {
		return nil, err
	}

	refresh, err := e.jwtManager.CreateRefresh(uid)
	if err != nil {
		return nil, err
	}

	csrfToken, err := e.csrf.Issue(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &Credentials{
		UserID:       uid,
		AccessToken:  access,
		RefreshToken: refresh,
		CSRFToken:    csrfToken,
	}, nil
}
