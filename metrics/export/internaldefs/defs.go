package internaldefs

import (
	sentinel "github.com/sentinelforge/sentinel"
)

// CounterDef maps one engine counter to its exported name.
type CounterDef struct {
	ID   sentinel.MetricID
	Name string
	Help string
}

// HistogramDef maps one engine histogram to its exported name.
type HistogramDef struct {
	ID   sentinel.MetricID
	Name string
	Help string
}

// CounterDefs is the stable export order of every engine counter. Both
// exporters iterate this list so the exposition is deterministic.
var CounterDefs = []CounterDef{
	{ID: sentinel.MetricPasswordEvaluated, Name: "sentinel_password_evaluated_total", Help: "Password strength evaluations."},
	{ID: sentinel.MetricPasswordRejected, Name: "sentinel_password_rejected_total", Help: "Passwords rejected by a hard policy rule."},
	{ID: sentinel.MetricPasswordReuseRejected, Name: "sentinel_password_reuse_rejected_total", Help: "Password changes blocked by the reuse window."},
	{ID: sentinel.MetricRiskAssessed, Name: "sentinel_risk_assessed_total", Help: "Risk assessments performed."},
	{ID: sentinel.MetricRiskLevelNormal, Name: "sentinel_risk_level_normal_total", Help: "Assessments resolving to the normal level."},
	{ID: sentinel.MetricRiskLevelElevated, Name: "sentinel_risk_level_elevated_total", Help: "Assessments resolving to the elevated level."},
	{ID: sentinel.MetricRiskLevelHighRisk, Name: "sentinel_risk_level_high_risk_total", Help: "Assessments resolving to the high_risk level."},
	{ID: sentinel.MetricRiskLevelCritical, Name: "sentinel_risk_level_critical_total", Help: "Assessments resolving to the critical level."},
	{ID: sentinel.MetricRiskFailSafe, Name: "sentinel_risk_fail_safe_total", Help: "Assessments degraded to the fail-safe default."},
	{ID: sentinel.MetricSessionCreated, Name: "sentinel_session_created_total", Help: "Created sessions."},
	{ID: sentinel.MetricSessionRevoked, Name: "sentinel_session_revoked_total", Help: "Session state transitions to revoked."},
	{ID: sentinel.MetricSessionValidationFailed, Name: "sentinel_session_validation_failed_total", Help: "Validations that found a session invalid."},
	{ID: sentinel.MetricValidationFailSecure, Name: "sentinel_validation_fail_secure_total", Help: "Validator failures that fell back to revoke."},
	{ID: sentinel.MetricSweepRuns, Name: "sentinel_sweep_runs_total", Help: "Expiry sweep passes."},
	{ID: sentinel.MetricSweepRevoked, Name: "sentinel_sweep_revoked_total", Help: "Sessions revoked by the sweeper."},
	{ID: sentinel.MetricSignInBlocked, Name: "sentinel_sign_in_blocked_total", Help: "User security checks that blocked sign-in."},
	{ID: sentinel.MetricMFARequired, Name: "sentinel_mfa_required_total", Help: "User security checks that demanded MFA."},
	{ID: sentinel.MetricLockoutTriggered, Name: "sentinel_lockout_triggered_total", Help: "Failure-streak lockouts."},
}

// HistogramDefs is the stable export order of every engine histogram.
var HistogramDefs = []HistogramDef{
	{ID: sentinel.MetricAssessLatency, Name: "sentinel_assess_latency_seconds", Help: "Risk assessment latency histogram."},
}

// HistogramBounds are the upper bounds of the engine's latency buckets, in
// seconds, formatted for the le label.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds with characters legal in
// instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed width.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// both exposition formats require.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
