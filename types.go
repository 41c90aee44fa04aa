package authcore

import (
	"context"
	"io"

	internalaudit "github.com/arkoze/authcore/internal/audit"
	internalmetrics "github.com/arkoze/authcore/internal/metrics"
)

// User is the durable account record referenced by the engine. The engine
// never owns its storage; see [UserStore].
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
}

// UserStore is the persistent-store collaborator the integrator must
// implement. FindByEmail returns [ErrUserNotFound] when no account
// matches. Create must enforce a unique-email constraint and return
// [ErrUserExists] on violation; that constraint is the engine's only
// defense against the concurrent verification race.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, name, email, passwordHash string) (*User, error)
}

// Notifier is the outbound delivery collaborator (email, SMS). A failed
// Send is reported to the caller but never rolls back ephemeral state:
// the recipient can still complete the flow within the artifact's TTL if
// delivery is retried through another path.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Credentials is the token triple issued when a login completes. Access
// and refresh tokens are expected to travel as httpOnly cookies; the CSRF
// token as a readable cookie echoed back in a request header.
type Credentials struct {
	UserID       string
	AccessToken  string
	RefreshToken string
	CSRFToken    string
}

// AuthResult is returned by [Engine.ValidateAccess].
type AuthResult struct {
	UserID string
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer], one object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// MetricID identifies a specific counter or histogram bucket in the
// in-process metrics system.
type MetricID = internalmetrics.MetricID

const (
	MetricRegisterRequest       = internalmetrics.MetricRegisterRequest
	MetricRegisterRateLimited   = internalmetrics.MetricRegisterRateLimited
	MetricRegisterDuplicate     = internalmetrics.MetricRegisterDuplicate
	MetricRegisterVerified      = internalmetrics.MetricRegisterVerified
	MetricRegisterVerifyFailure = internalmetrics.MetricRegisterVerifyFailure
	MetricLoginSuccess          = internalmetrics.MetricLoginSuccess
	MetricLoginFailure          = internalmetrics.MetricLoginFailure
	MetricLoginRateLimited      = internalmetrics.MetricLoginRateLimited
	MetricOTPIssued             = internalmetrics.MetricOTPIssued
	MetricOTPMatched            = internalmetrics.MetricOTPMatched
	MetricOTPMismatch           = internalmetrics.MetricOTPMismatch
	MetricOTPExpired            = internalmetrics.MetricOTPExpired
	MetricOTPAttemptsExceeded   = internalmetrics.MetricOTPAttemptsExceeded
	MetricTokensIssued          = internalmetrics.MetricTokensIssued
	MetricRefreshSuccess        = internalmetrics.MetricRefreshSuccess
	MetricRefreshInvalid        = internalmetrics.MetricRefreshInvalid
	MetricLogout                = internalmetrics.MetricLogout
	MetricCSRFRejected          = internalmetrics.MetricCSRFRejected
	MetricCSRFRotated           = internalmetrics.MetricCSRFRotated
	MetricNotifyFailure         = internalmetrics.MetricNotifyFailure
	MetricVerifyLatency         = internalmetrics.MetricVerifyLatency
)

// Metrics holds atomic counters and optional latency histograms.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot
