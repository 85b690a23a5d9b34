package sentinel

import (
	"context"
	"time"

	"github.com/sentinelforge/sentinel/device"
	"github.com/sentinelforge/sentinel/risk"
)

// AssessRisk enriches the request context with every signal the engine can
// reach and scores it. fingerprint is the stable client-side device
// fingerprint; pass "" when the client did not supply one, which itself
// raises the score.
//
// Enrichment is best-effort: an unreachable Redis or geo resolver degrades
// to missing signals rather than failing the assessment, and missing
// signals score as risk factors on their own.
func (e *Engine) AssessRisk(ctx context.Context, userID, fingerprint string) (risk.Assessment, error) {
	if !e.ready() {
		return risk.Assessment{}, ErrEngineNotReady
	}

	start := time.Now()
	assessment := e.riskEngine.Assess(e.buildRiskContext(ctx, userID, fingerprint))

	e.metricInc(MetricRiskAssessed)
	e.metricInc(riskLevelMetric(assessment.Level))
	if hasFactor(assessment, risk.FactorCalculationError) {
		e.metricInc(MetricRiskFailSafe)
	}
	if e.metrics != nil {
		e.metrics.Observe(MetricAssessLatency, time.Since(start))
	}

	return assessment, nil
}

// buildRiskContext gathers the per-request signals: classified device,
// resolved location, failure streak, session velocity, and device/location
// novelty against the user's active sessions.
func (e *Engine) buildRiskContext(ctx context.Context, userID, fingerprint string) risk.Context {
	rctx := risk.Context{
		UserID:    userID,
		IPAddress: clientIPFromContext(ctx),
		LoginTime: time.Now(),
	}

	if ua := userAgentFromContext(ctx); ua != "" {
		desc := device.Classify(ua)
		desc.Fingerprint = fingerprint
		rctx.Device = &desc
	} else if fingerprint != "" {
		rctx.Device = &device.Descriptor{
			Type:        device.TypeUnknown,
			Fingerprint: fingerprint,
		}
	}

	if e.geo != nil && rctx.IPAddress != "" {
		if loc, err := e.geo.Resolve(ctx, rctx.IPAddress); err == nil {
			rctx.Location = loc
		}
	}

	if fingerprint != "" {
		tokens, err := e.sessions.FingerprintTokens(ctx, userID, fingerprint)
		rctx.IsNewDevice = err == nil && len(tokens) == 0
	}

	if rctx.Location != nil && rctx.Location.CountryCode != "" {
		rctx.IsNewLocation = e.isNewCountry(ctx, userID, rctx.Location.CountryCode)
	}

	if failures, err := e.lockout.FailureCount(ctx, userID); err == nil {
		rctx.ConsecutiveFailures = failures
	}
	if created, err := e.sessions.CountCreated24h(ctx, userID); err == nil {
		rctx.SessionsCreated24h = created
	}

	return rctx
}

// isNewCountry reports whether no active session of the user was created
// from the given country. Unreadable records count as unknown, not new.
func (e *Engine) isNewCountry(ctx context.Context, userID, countryCode string) bool {
	records, err := e.sessions.ActiveRecords(ctx, userID)
	if err != nil {
		return false
	}

	for _, rec := range records {
		if rec.Location != nil && equalCountry(rec.Location.CountryCode, countryCode) {
			return false
		}
	}
	return len(records) > 0
}

func equalCountry(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'a' <= ca && ca <= 'z' {
			ca -= 'a' - 'A'
		}
		if 'a' <= cb && cb <= 'z' {
			cb -= 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

func riskLevelMetric(level risk.Level) MetricID {
	switch level {
	case risk.LevelCritical:
		return MetricRiskLevelCritical
	case risk.LevelHighRisk:
		return MetricRiskLevelHighRisk
	case risk.LevelElevated:
		return MetricRiskLevelElevated
	default:
		return MetricRiskLevelNormal
	}
}

func hasFactor(a risk.Assessment, factor string) bool {
	for _, f := range a.Factors {
		if f == factor {
			return true
		}
	}
	return false
}

// DeriveFingerprint hashes a raw client signature into a fingerprint for
// callers that cannot supply a stable one. Derivations are salted per engine
// instance, so they compare only within one process lifetime; persistent
// clients should send their own stable fingerprint instead.
func (e *Engine) DeriveFingerprint(signature string, extra map[string]string) string {
	if e == nil || e.fingerprinter == nil {
		return ""
	}
	return e.fingerprinter.Derive(signature, extra)
}
