package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is not rotated; it stays valid until its own
// expiry or until the owner's revocation instant moves past its issue
// time. Signature failures, expiry, and revocation are all reported as
// ErrRefreshInvalid.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}

	claims, err := e.jwtManager.ParseRefresh(refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshInvalid)
		e.emitAudit(ctx, auditEventRefresh, false, "", "", ErrRefreshInvalid, nil)
		return "", ErrRefreshInvalid
	}

	revokedAt, revoked, err := e.revocations.RevokedAt(ctx, claims.UID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if revoked && !claims.IssuedAt.Time.After(revokedAt) {
		e.metricInc(MetricRefreshInvalid)
		e.emitAudit(ctx, auditEventRefresh, false, claims.UID, "", ErrRefreshInvalid, nil)
		return "", ErrRefreshInvalid
	}

	access, err := e.jwtManager.CreateAccess(claims.UID)
	if err != nil {
		return "", err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefresh, true, claims.UID, "", nil, nil)

	return access, nil
}

// Logout invalidates every refresh token the user holds and clears their
// anti-forgery token. It records the current instant as the user's
// revocation timestamp; refresh tokens issued at or before it are
// rejected from then on. Logout is idempotent: repeating it only moves
// the instant forward.
//
// Outstanding access tokens are not recalled; they age out within the
// access TTL.
func (e *Engine) Logout(ctx context.Context, userID string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if userID == "" {
		return ErrUnauthorized
	}

	if err := e.revocations.Revoke(ctx, userID, time.Now()); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := e.csrf.Clear(ctx, userID); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, userID, "", nil, nil)

	return nil
}

// ValidateAccess verifies an access token and returns the identity it
// was issued to. Any failure is ErrUnauthorized; callers learn nothing
// about why a token was rejected.
func (e *Engine) ValidateAccess(ctx context.Context, accessToken string) (*AuthResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	_ = ctx

	claims, err := e.jwtManager.ParseAccess(accessToken)
	if err != nil {
		return nil, ErrUnauthorized
	}

	return &AuthResult{UserID: claims.UID}, nil
}

// ValidateCSRF checks the header-echoed anti-forgery token against the
// stored value for userID. Missing and mismatched tokens both fail with
// ErrCSRFInvalid.
func (e *Engine) ValidateCSRF(ctx context.Context, userID, presented string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	err := e.csrf.Validate(ctx, userID, presented)
	if err != nil {
		if errors.Is(err, errCSRFNotFound) || errors.Is(err, errCSRFMismatch) {
			e.metricInc(MetricCSRFRejected)
			e.emitAudit(ctx, auditEventCSRFRejected, false, userID, "", ErrCSRFInvalid, nil)
			return ErrCSRFInvalid
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// RotateCSRF replaces the user's anti-forgery token and returns the new
// value. Rotation is independent of the JWT pair; sessions stay live
// across it.
func (e *Engine) RotateCSRF(ctx context.Context, userID string) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}
	if userID == "" {
		return "", ErrUnauthorized
	}

	token, err := e.csrf.Issue(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricCSRFRotated)
	e.emitAudit(ctx, auditEventCSRFRotated, true, userID, "", nil, nil)

	return token, nil
}
