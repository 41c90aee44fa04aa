package metrics

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a single counter or histogram slot.
type MetricID int

const (
	MetricRegisterRequest MetricID = iota
	MetricRegisterRateLimited
	MetricRegisterDuplicate
	MetricRegisterVerified
	MetricRegisterVerifyFailure
	MetricLoginSuccess
	MetricLoginFailure
	MetricLoginRateLimited
	MetricOTPIssued
	MetricOTPMatched
	MetricOTPMismatch
	MetricOTPExpired
	MetricOTPAttemptsExceeded
	MetricTokensIssued
	MetricRefreshSuccess
	MetricRefreshInvalid
	MetricLogout
	MetricCSRFRejected
	MetricCSRFRotated
	MetricNotifyFailure
	MetricVerifyLatency

	MetricIDCount
)

// Config controls metric collection.
type Config struct {
	Enabled       bool
	EnableLatency bool
}

// histogram bucket upper bounds in milliseconds; the last bucket is +Inf.
var latencyBucketsMs = [8]uint64{5, 10, 25, 50, 100, 250, 1000, 0}

type paddedCounter struct {
	value atomic.Uint64
	_     [56]byte
}

type histogram struct {
	buckets [8]atomic.Uint64
}

// Metrics holds lock-free counters and optional latency histograms.
// All write-path operations are allocation-free; a nil *Metrics is a
// valid no-op receiver.
type Metrics struct {
	enabled    bool
	latency    bool
	counters   [MetricIDCount]paddedCounter
	histograms [MetricIDCount]histogram
}

// Snapshot is a point-in-time deep copy of all metric values.
type Snapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// New creates a Metrics instance. When cfg.Enabled is false, nil is
// returned and every operation on it is a no-op.
func New(cfg Config) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	return &Metrics{
		enabled: true,
		latency: cfg.EnableLatency,
	}
}

// Inc increments the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id < 0 || id >= MetricIDCount {
		return
	}
	m.counters[id].value.Add(1)
}

// LatencyEnabled reports whether Observe records anything. Callers use it
// to skip the time.Since bookkeeping entirely.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enabled && m.latency
}

// Observe records a duration into the histogram for id.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if !m.LatencyEnabled() || id < 0 || id >= MetricIDCount {
		return
	}
	ms := uint64(d / time.Millisecond)
	h := &m.histograms[id]
	for i, bound := range latencyBucketsMs {
		if bound == 0 || ms <= bound {
			h.buckets[i].Add(1)
			return
		}
	}
}

// Snapshot returns a deep copy of all non-zero counters and histograms.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
	if m == nil || !m.enabled {
		return snap
	}

	for id := MetricID(0); id < MetricIDCount; id++ {
		if v := m.counters[id].value.Load(); v > 0 {
			snap.Counters[id] = v
		}
	}
	if m.latency {
		for id := MetricID(0); id < MetricIDCount; id++ {
			var total uint64
			buckets := make([]uint64, len(latencyBucketsMs))
			for i := range latencyBucketsMs {
				buckets[i] = m.histograms[id].buckets[i].Load()
				total += buckets[i]
			}
			if total > 0 {
				snap.Histograms[id] = buckets
			}
		}
	}
	return snap
}
