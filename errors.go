package authcore

import "errors"

var (
	// ErrEngineNotReady is returned when an Engine method is invoked on a
	// partially constructed instance.
	ErrEngineNotReady = errors.New("engine not ready")

	// ErrRegistrationRateLimited rejects a registration attempt inside the
	// cooldown window of a previous successful attempt.
	ErrRegistrationRateLimited = errors.New("registration rate limited")
	// ErrLoginRateLimited rejects a login attempt inside the cooldown
	// window of a previous successful attempt.
	ErrLoginRateLimited = errors.New("login rate limited")

	// ErrVerificationExpired is the single failure mode of registration
	// completion: unknown, consumed, and expired tokens are deliberately
	// indistinguishable.
	ErrVerificationExpired = errors.New("verification link expired")
	// ErrUserExists signals an identity collision at commit time.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned by UserStore implementations when no
	// account matches the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials covers unknown email and wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrOTPExpired means no challenge is outstanding for the identity.
	ErrOTPExpired = errors.New("otp expired")
	// ErrOTPMismatch means the submitted code differs from the stored
	// challenge; the challenge stays valid until the attempt cap.
	ErrOTPMismatch = errors.New("otp mismatch")
	// ErrOTPAttemptsExceeded means the mismatch cap was reached and the
	// challenge has been destroyed.
	ErrOTPAttemptsExceeded = errors.New("otp attempts exceeded")

	// ErrRefreshInvalid covers bad signature, expiry, and revocation.
	ErrRefreshInvalid = errors.New("refresh token invalid")
	// ErrCSRFInvalid rejects a state-changing request whose echoed token
	// does not match the stored anti-forgery value.
	ErrCSRFInvalid = errors.New("csrf token invalid")
	// ErrUnauthorized rejects a protected operation without a valid
	// access token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotifyFailed surfaces a notification channel failure. Ephemeral
	// state already written stays valid until its own TTL.
	ErrNotifyFailed = errors.New("notification delivery failed")

	// ErrStoreUnavailable wraps ephemeral-store backend failures.
	ErrStoreUnavailable = errors.New("ephemeral store unavailable")
)
