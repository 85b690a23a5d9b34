package sentinel

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one counter or histogram tracked by [Metrics].
type MetricID uint16

const (
	// MetricPasswordEvaluated counts strength evaluations.
	MetricPasswordEvaluated MetricID = iota
	// MetricPasswordRejected counts evaluations that failed a required rule.
	MetricPasswordRejected
	// MetricPasswordReuseRejected counts password changes blocked by the reuse window.
	MetricPasswordReuseRejected
	// MetricRiskAssessed counts risk assessments.
	MetricRiskAssessed
	// MetricRiskLevelNormal counts assessments resolving to the normal level.
	MetricRiskLevelNormal
	// MetricRiskLevelElevated counts assessments resolving to the elevated level.
	MetricRiskLevelElevated
	// MetricRiskLevelHighRisk counts assessments resolving to the high_risk level.
	MetricRiskLevelHighRisk
	// MetricRiskLevelCritical counts assessments resolving to the critical level.
	MetricRiskLevelCritical
	// MetricRiskFailSafe counts assessments that degraded to the fail-safe default.
	MetricRiskFailSafe
	// MetricSessionCreated counts session creations.
	MetricSessionCreated
	// MetricSessionRevoked counts session state transitions to revoked.
	MetricSessionRevoked
	// MetricSessionValidationFailed counts validations that found a session invalid.
	MetricSessionValidationFailed
	// MetricValidationFailSecure counts validator failures that fell back to revoke.
	MetricValidationFailSecure
	// MetricSweepRuns counts expiry sweep passes.
	MetricSweepRuns
	// MetricSweepRevoked counts sessions revoked by the sweeper.
	MetricSweepRevoked
	// MetricSignInBlocked counts user security checks that blocked sign-in.
	MetricSignInBlocked
	// MetricMFARequired counts user security checks that demanded MFA.
	MetricMFARequired
	// MetricLockoutTriggered counts failure-streak lockouts.
	MetricLockoutTriggered
	// MetricAssessLatency is the risk assessment latency histogram.
	MetricAssessLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters and the assessment latency histogram.
// All methods are safe on a nil receiver.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all metric values.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics builds a metrics registry from cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether the registry records anything.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc increments a counter. No-op when disabled.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records an assessment latency sample.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricAssessLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and histogram into maps for export.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricAssessLatency].buckets[i])
		}
		s.Histograms[MetricAssessLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
