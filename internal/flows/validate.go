package flows

import (
	"time"

	"github.com/sentinelforge/sentinel/risk"
	"github.com/sentinelforge/sentinel/session"
)

// Session validation limits.
const (
	// DefaultMaxSessionAge is the absolute session lifetime.
	DefaultMaxSessionAge = 30 * 24 * time.Hour

	riskRevokeThreshold = 80
	riskWarnThreshold   = 60
)

// Idle budgets per security level. Higher risk gets a shorter leash.
const (
	idleBudgetNormal   = 24 * time.Hour
	idleBudgetElevated = 8 * time.Hour
	idleBudgetHighRisk = 2 * time.Hour
	idleBudgetCritical = 30 * time.Minute
)

// IdleBudget returns the maximum idle time a session at the given security
// level may accumulate before revocation.
func IdleBudget(level risk.Level) time.Duration {
	switch level {
	case risk.LevelCritical:
		return idleBudgetCritical
	case risk.LevelHighRisk:
		return idleBudgetHighRisk
	case risk.LevelElevated:
		return idleBudgetElevated
	default:
		return idleBudgetNormal
	}
}

// Validation warning and recommendation strings.
const (
	WarnSessionRevoked     = "session has been revoked"
	WarnSessionTooOld      = "session exceeded maximum age"
	WarnSessionIdle        = "session idle too long for its security level"
	WarnSessionRiskHigh    = "session risk score too high"
	WarnSessionRiskRaised  = "session risk score elevated"
	WarnMissingFingerprint = "session has no device fingerprint"
	WarnMissingIP          = "session has no client IP"
	WarnValidatorDegraded  = "session validation degraded, revoking defensively"

	RecommendExtraVerification = "re-verify the user before sensitive operations"
	RecommendEnableTracking    = "enable device and network tracking for this client"
)

// Revocation reasons recorded by validation-driven revokes.
const (
	ReasonMaxAge   = "max_age_exceeded"
	ReasonIdle     = "idle_timeout"
	ReasonRisk     = "risk_revoke"
	ReasonDegraded = "validator_degraded"
)

// ValidateDeps configures the session validator.
type ValidateDeps struct {
	Now           func() time.Time
	MaxSessionAge time.Duration
	// IdleBudgetFor overrides the default per-level idle budgets when set.
	IdleBudgetFor func(risk.Level) time.Duration
}

// ValidateOutcome is the decision for one session.
type ValidateOutcome struct {
	IsValid      bool
	ShouldRevoke bool
	// RevokeReason is set when ShouldRevoke; the first triggered rule wins.
	RevokeReason    string
	Warnings        []string
	Recommendations []string
}

// RunValidateSession applies the independent validity rules to one record.
// Rules OR into ShouldRevoke; advisory rules only warn. Any panic resolves
// fail-secure to invalid-and-revoke.
func RunValidateSession(rec *session.Record, deps ValidateDeps) (out ValidateOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = degradedOutcome()
		}
	}()

	if rec == nil {
		return degradedOutcome()
	}

	now := deps.Now()
	out = ValidateOutcome{IsValid: true}

	flag := func(reason, warning string) {
		out.IsValid = false
		out.ShouldRevoke = true
		if out.RevokeReason == "" {
			out.RevokeReason = reason
		}
		out.Warnings = append(out.Warnings, warning)
	}

	if rec.Revoked {
		out.IsValid = false
		out.Warnings = append(out.Warnings, WarnSessionRevoked)
		return out
	}

	maxAge := deps.MaxSessionAge
	if maxAge <= 0 {
		maxAge = DefaultMaxSessionAge
	}
	if rec.Age(now) > maxAge {
		flag(ReasonMaxAge, WarnSessionTooOld)
	}

	budgetFor := deps.IdleBudgetFor
	if budgetFor == nil {
		budgetFor = IdleBudget
	}
	if rec.IdleFor(now) > budgetFor(rec.SecurityLevel) {
		flag(ReasonIdle, WarnSessionIdle)
	}

	switch {
	case rec.RiskScore >= riskRevokeThreshold:
		flag(ReasonRisk, WarnSessionRiskHigh)
	case rec.RiskScore >= riskWarnThreshold:
		out.Warnings = append(out.Warnings, WarnSessionRiskRaised)
		out.Recommendations = append(out.Recommendations, RecommendExtraVerification)
	}

	if rec.Fingerprint() == "" {
		out.Warnings = append(out.Warnings, WarnMissingFingerprint)
		out.Recommendations = appendOnce(out.Recommendations, RecommendEnableTracking)
	}
	if rec.IPAddress == "" {
		out.Warnings = append(out.Warnings, WarnMissingIP)
		out.Recommendations = appendOnce(out.Recommendations, RecommendEnableTracking)
	}

	return out
}

func degradedOutcome() ValidateOutcome {
	return ValidateOutcome{
		IsValid:      false,
		ShouldRevoke: true,
		RevokeReason: ReasonDegraded,
		Warnings:     []string{WarnValidatorDegraded},
	}
}

func appendOnce(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
