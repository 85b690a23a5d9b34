package sentinel

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sentinelforge/sentinel/internal"
	"github.com/sentinelforge/sentinel/internal/audit"
	"github.com/sentinelforge/sentinel/internal/flows"
	"github.com/sentinelforge/sentinel/risk"
	"github.com/sentinelforge/sentinel/session"
)

// CreateSession runs the full sign-in pipeline for an already-authenticated
// user: risk assessment, the user security gate, and persistence of the new
// session record at its assessed risk level.
func (e *Engine) CreateSession(ctx context.Context, in CreateSessionInput) (*CreateSessionResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	user, err := e.users.GetUserByID(ctx, in.UserID)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrUserNotFound, err)
		e.emitAudit(ctx, auditEventSessionCreated, audit.CategorySession,
			false, in.UserID, "", err, nil)
		return nil, err
	}
	if user == nil {
		e.emitAudit(ctx, auditEventSessionCreated, audit.CategorySession,
			false, in.UserID, "", ErrUserNotFound, nil)
		return nil, ErrUserNotFound
	}

	rctx := e.buildRiskContext(ctx, in.UserID, in.Fingerprint)
	assessment := e.riskEngine.Assess(rctx)
	e.metricInc(MetricRiskAssessed)
	e.metricInc(riskLevelMetric(assessment.Level))
	if hasFactor(assessment, risk.FactorCalculationError) {
		e.metricInc(MetricRiskFailSafe)
	}

	security := flows.RunUserSecurity(e.accountSnapshot(ctx, user), flows.SecurityContext{
		IPAddress: rctx.IPAddress,
		Device:    rctx.Device,
		RiskScore: assessment.Score,
	}, e.securityDeps())

	if !security.IsValid {
		e.metricInc(MetricSignInBlocked)
		e.emitAudit(ctx, auditEventSignInBlocked, audit.CategoryAuth,
			false, in.UserID, "", ErrSignInBlocked, func() map[string]string {
				return map[string]string{"reasons": joinReasons(security.BlockedReasons)}
			})
		return nil, ErrSignInBlocked
	}

	if security.RequiresMFA && !in.MFACompleted {
		e.metricInc(MetricMFARequired)
		e.emitAudit(ctx, auditEventMFADemanded, audit.CategoryAuth,
			false, in.UserID, "", ErrMFARequired, nil)
		return nil, ErrMFARequired
	}

	token, err := internal.NewSessionToken()
	if err != nil {
		e.emitAudit(ctx, auditEventSessionCreated, audit.CategorySession,
			false, in.UserID, "", err, nil)
		return nil, err
	}

	now := nowUTC()
	ttl := in.TTL
	if ttl <= 0 {
		ttl = e.config.Session.TTL
	}

	rec := &session.Record{
		Token:          token.String(),
		UserID:         in.UserID,
		CreatedAt:      now,
		LastAccessedAt: now,
		RiskScore:      assessment.Score,
		SecurityLevel:  assessment.Level,
		IPAddress:      rctx.IPAddress,
		Location:       rctx.Location,
	}
	if rctx.Device != nil {
		rec.Device = *rctx.Device
	}
	rec.Device.Fingerprint = in.Fingerprint

	if err := e.sessions.Save(ctx, rec, ttl); err != nil {
		e.emitAudit(ctx, auditEventSessionCreated, audit.CategorySession,
			false, in.UserID, rec.Token, err, nil)
		return nil, err
	}

	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventSessionCreated, audit.CategorySession,
		true, in.UserID, rec.Token, nil, func() map[string]string {
			return map[string]string{
				"risk_score":     strconv.Itoa(assessment.Score),
				"security_level": string(assessment.Level),
			}
		})

	_ = e.users.UpdateLastLogin(ctx, in.UserID, now)

	result := &CreateSessionResult{
		Token:                  rec.Token,
		ExpiresAt:              now.Add(ttl),
		Assessment:             assessment,
		RequiresPasswordChange: security.RequiresPasswordChange,
		Warnings:               security.Warnings,
	}

	if e.attest != nil {
		if signed, err := e.attest.Issue(in.UserID, rec.Token, assessment.Level, assessment.Score); err == nil {
			result.Attestation = signed
		}
	}

	return result, nil
}

// ValidateSession loads a session and applies the validity rules. Sessions
// the rules condemn are revoked here, in the read path, so a compromised
// session dies the moment it is next seen.
func (e *Engine) ValidateSession(ctx context.Context, token string) (*ValidationResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	rec, err := e.sessions.Get(ctx, token)
	if err != nil {
		e.metricInc(MetricSessionValidationFailed)
		return nil, err
	}

	outcome := flows.RunValidateSession(rec, e.validateDeps())

	result := &ValidationResult{
		Valid:           outcome.IsValid,
		Session:         sessionInfo(rec, sessionTokenFromContext(ctx)),
		Warnings:        outcome.Warnings,
		Recommendations: outcome.Recommendations,
	}

	if outcome.ShouldRevoke {
		e.metricInc(MetricSessionValidationFailed)
		if outcome.RevokeReason == flows.ReasonDegraded {
			e.metricInc(MetricValidationFailSecure)
		}

		transitioned, revokeErr := e.sessions.Revoke(ctx, token, outcome.RevokeReason, nowUTC())
		if revokeErr == nil && transitioned {
			e.metricInc(MetricSessionRevoked)
			e.emitAudit(ctx, auditEventSessionAutoRevoked, audit.CategorySession,
				false, rec.UserID, token, nil, func() map[string]string {
					return map[string]string{"reason": outcome.RevokeReason}
				})
		}

		result.Revoked = transitioned && revokeErr == nil
		result.RevokeReason = outcome.RevokeReason
		return result, nil
	}

	if !outcome.IsValid {
		// Already-revoked record: invalid but nothing to transition.
		e.metricInc(MetricSessionValidationFailed)
		return result, nil
	}

	// Sliding activity marker; failure does not invalidate the session.
	_ = e.sessions.Touch(ctx, token, nowUTC())

	if e.attest != nil {
		if signed, err := e.attest.Issue(rec.UserID, rec.Token, rec.SecurityLevel, rec.RiskScore); err == nil {
			result.Attestation = signed
		}
	}

	return result, nil
}

// ValidateUserSecurity runs the sign-in security gate without creating a
// session: account state, failure streak, contextual risk, and MFA
// obligations. The risk score feeding the MFA decision is assessed from the
// request context, same as CreateSession does.
func (e *Engine) ValidateUserSecurity(ctx context.Context, userID string) (*UserSecurityResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	user, err := e.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserNotFound, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	rctx := e.buildRiskContext(ctx, userID, "")
	assessment := e.riskEngine.Assess(rctx)
	e.metricInc(MetricRiskAssessed)
	e.metricInc(riskLevelMetric(assessment.Level))
	if hasFactor(assessment, risk.FactorCalculationError) {
		e.metricInc(MetricRiskFailSafe)
	}

	outcome := flows.RunUserSecurity(e.accountSnapshot(ctx, user), flows.SecurityContext{
		IPAddress: rctx.IPAddress,
		Device:    rctx.Device,
		RiskScore: assessment.Score,
	}, e.securityDeps())

	if !outcome.IsValid {
		e.metricInc(MetricSignInBlocked)
		e.emitAudit(ctx, auditEventSignInBlocked, audit.CategoryAuth,
			false, userID, "", ErrSignInBlocked, func() map[string]string {
				return map[string]string{"reasons": joinReasons(outcome.BlockedReasons)}
			})
	} else if outcome.RequiresMFA {
		e.metricInc(MetricMFARequired)
	}

	return &UserSecurityResult{
		Valid:                  outcome.IsValid,
		RequiresMFA:            outcome.RequiresMFA,
		RequiresPasswordChange: outcome.RequiresPasswordChange,
		Warnings:               outcome.Warnings,
		BlockedReasons:         outcome.BlockedReasons,
	}, nil
}

// ListSessions returns the user's active sessions, marking the one matching
// the context's own token as current.
func (e *Engine) ListSessions(ctx context.Context, userID string) ([]SessionInfo, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	records, err := e.sessions.ActiveRecords(ctx, userID)
	if err != nil {
		return nil, err
	}

	current := sessionTokenFromContext(ctx)
	infos := make([]SessionInfo, 0, len(records))
	for _, rec := range records {
		infos = append(infos, *sessionInfo(rec, current))
	}
	return infos, nil
}

// RevokeSession revokes one session. Idempotent: revoking an
// already-revoked session succeeds and reports no transition.
func (e *Engine) RevokeSession(ctx context.Context, token, reason string) (bool, error) {
	if !e.ready() {
		return false, ErrEngineNotReady
	}

	transitioned, err := e.sessions.Revoke(ctx, token, reason, nowUTC())
	if err != nil {
		e.emitAudit(ctx, auditEventSessionRevoked, audit.CategorySession,
			false, "", token, err, func() map[string]string {
				return map[string]string{"reason": reason}
			})
		return false, err
	}

	if transitioned {
		e.metricInc(MetricSessionRevoked)
		e.emitAudit(ctx, auditEventSessionRevoked, audit.CategorySession,
			true, "", token, nil, func() map[string]string {
				return map[string]string{"reason": reason}
			})
	}

	return transitioned, nil
}

// RevokeAllSessions revokes every active session of the user except the
// caller's own, when one is attached via WithSessionToken.
func (e *Engine) RevokeAllSessions(ctx context.Context, userID, reason string) (*RevokeSummary, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	keep := sessionTokenFromContext(ctx)
	res := flows.RunRevokeAll(ctx, e.sessions, userID, keep, reason, e.lifecycleDeps())
	if res.Err != nil && !res.Success {
		e.emitAudit(ctx, auditEventSessionsRevokedAll, audit.CategorySession,
			false, userID, "", res.Err, func() map[string]string {
				return map[string]string{"reason": reason}
			})
		return nil, res.Err
	}

	e.metricAdd(MetricSessionRevoked, res.Revoked)
	e.emitAudit(ctx, auditEventSessionsRevokedAll, audit.CategorySession,
		true, userID, "", nil, func() map[string]string {
			return map[string]string{
				"reason":  reason,
				"revoked": strconv.Itoa(res.Revoked),
			}
		})

	return &RevokeSummary{Revoked: res.Revoked, Complete: res.Success}, nil
}

// RevokeSessionsByDevice revokes every session of the user bound to the
// given device fingerprint.
func (e *Engine) RevokeSessionsByDevice(ctx context.Context, userID, fingerprint, reason string) (*RevokeSummary, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	res := flows.RunRevokeByDevice(ctx, e.sessions, userID, fingerprint, reason, e.lifecycleDeps())
	if res.Err != nil && !res.Success {
		e.emitAudit(ctx, auditEventSessionsRevokedDevice, audit.CategorySession,
			false, userID, "", res.Err, func() map[string]string {
				return map[string]string{"reason": reason, "fingerprint": fingerprint}
			})
		return nil, res.Err
	}

	e.metricAdd(MetricSessionRevoked, res.Revoked)
	e.emitAudit(ctx, auditEventSessionsRevokedDevice, audit.CategorySession,
		true, userID, "", nil, func() map[string]string {
			return map[string]string{
				"reason":      reason,
				"fingerprint": fingerprint,
				"revoked":     strconv.Itoa(res.Revoked),
			}
		})

	return &RevokeSummary{Revoked: res.Revoked, Complete: res.Success}, nil
}

// SweepExpiredSessions walks every stored session and revokes the ones the
// validity rules condemn. Run it periodically; the built-in sweeper calls
// it on its interval when enabled.
func (e *Engine) SweepExpiredSessions(ctx context.Context) (*SweepSummary, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	deps := e.validateDeps()
	res := flows.RunSweep(ctx, e.sessions, func(rec *session.Record) flows.ValidateOutcome {
		return flows.RunValidateSession(rec, deps)
	}, e.lifecycleDeps())
	if res.Err != nil {
		e.emitAudit(ctx, auditEventSessionsSwept, audit.CategorySession,
			false, "", "", res.Err, nil)
		return nil, res.Err
	}

	e.metricInc(MetricSweepRuns)
	e.metricAdd(MetricSweepRevoked, res.Revoked)
	e.metricAdd(MetricSessionRevoked, res.Revoked)
	e.emitAudit(ctx, auditEventSessionsSwept, audit.CategorySession,
		true, "", "", nil, func() map[string]string {
			return map[string]string{
				"scanned": strconv.Itoa(res.Scanned),
				"revoked": strconv.Itoa(res.Revoked),
			}
		})

	return &SweepSummary{Scanned: res.Scanned, Revoked: res.Revoked}, nil
}

// accountSnapshot projects a UserRecord plus the live failure streak into
// the view the security flow consumes.
func (e *Engine) accountSnapshot(ctx context.Context, user *UserRecord) flows.AccountSnapshot {
	failures, _ := e.lockout.FailureCount(ctx, user.UserID)

	return flows.AccountSnapshot{
		UserID:            user.UserID,
		Active:            user.Active,
		LockedUntil:       user.LockedUntil,
		FailedLogins:      failures,
		MFAEnabled:        user.MFAEnabled,
		PasswordChangedAt: user.PasswordChangedAt,
		SecurityLevel:     user.SecurityLevel,
	}
}

func sessionInfo(rec *session.Record, currentToken string) *SessionInfo {
	if rec == nil {
		return nil
	}
	return &SessionInfo{
		Token:          rec.Token,
		UserID:         rec.UserID,
		CreatedAt:      rec.CreatedAt,
		LastAccessedAt: rec.LastAccessedAt,
		Device:         rec.Device,
		Location:       rec.Location,
		IPAddress:      rec.IPAddress,
		RiskScore:      rec.RiskScore,
		SecurityLevel:  rec.SecurityLevel,
		Revoked:        rec.Revoked,
		Current:        currentToken != "" && rec.Token == currentToken,
	}
}

func joinReasons(reasons []string) string {
	return strings.Join(reasons, ",")
}
