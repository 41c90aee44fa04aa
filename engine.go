package authcore

import (
	internalaudit "github.com/arkoze/authcore/internal/audit"
	internalmetrics "github.com/arkoze/authcore/internal/metrics"
	"github.com/arkoze/authcore/jwt"
	"github.com/arkoze/authcore/password"
)

// Engine coordinates the credential and session lifecycle: pending
// registrations, OTP challenges, rate markers, and the access/refresh/
// CSRF token triple. It holds no cross-request state in memory; every
// artifact lives in Redis or behind the UserStore, so one Engine value
// serves any number of concurrent requests without locking.
//
// Engine instances are configured during initialization and then treated
// as immutable.
type Engine struct {
	config       Config
	pendingStore *pendingRegistrationStore
	otpStore     *otpChallengeStore
	limiter      *attemptLimiter
	revocations  *revocationStore
	csrf         *csrfStore
	passwordHash *password.Hasher
	jwtManager   *jwt.Manager
	users        UserStore
	notifier     Notifier
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
}

// Close flushes and stops the audit dispatcher. Safe on a nil receiver.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all engine metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// NewMetrics creates a [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
