package sentinel

import (
	"context"
	"fmt"

	"github.com/sentinelforge/sentinel/internal/audit"
	"github.com/sentinelforge/sentinel/password"
)

// PasswordStrength is the outcome of one strength evaluation.
type PasswordStrength = password.StrengthResult

// PasswordContext carries optional user attributes for a strength
// evaluation.
type PasswordContext = password.Context

// EvaluatePasswordStrength scores a candidate password against the
// configured policy. Pure and side-effect free apart from metrics; safe to
// call on every keystroke.
func (e *Engine) EvaluatePasswordStrength(candidate string, pctx PasswordContext) (PasswordStrength, error) {
	if e == nil || e.evaluator == nil {
		return PasswordStrength{}, ErrEngineNotReady
	}

	result := e.evaluator.Evaluate(candidate, pctx)

	e.metricInc(MetricPasswordEvaluated)
	if !result.Valid {
		e.metricInc(MetricPasswordRejected)
	}

	return result, nil
}

// ChangePassword verifies the current password, enforces policy and reuse
// rules on the new one, and persists the new hash through the user
// provider. Exactly one audit event is emitted per call.
func (e *Engine) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	err := e.changePassword(ctx, userID, currentPassword, newPassword)

	if err != nil {
		e.emitAudit(ctx, auditEventPasswordChangeDenied, audit.CategoryPassword,
			false, userID, "", err, nil)
	} else {
		e.emitAudit(ctx, auditEventPasswordChanged, audit.CategoryPassword,
			true, userID, "", nil, nil)
	}
	return err
}

func (e *Engine) changePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := e.users.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUserNotFound, err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	if !e.hasher.Verify(currentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	strength := e.evaluator.Evaluate(newPassword, PasswordContext{
		Email: user.Email,
		Name:  user.Name,
	})
	e.metricInc(MetricPasswordEvaluated)
	if !strength.Valid {
		e.metricInc(MetricPasswordRejected)
		return ErrWeakPassword
	}

	// The current hash counts against the reuse window alongside the
	// rotated history.
	history := make([]string, 0, len(user.PriorPasswordHashes)+1)
	if user.PasswordHash != "" {
		history = append(history, user.PasswordHash)
	}
	history = append(history, user.PriorPasswordHashes...)

	reuse := e.hasher.CheckReuse(newPassword, history, e.config.Password.ReuseWindow)
	if !reuse.Allowed {
		e.metricInc(MetricPasswordReuseRejected)
		return ErrPasswordReuse
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	return e.users.UpdatePasswordHash(ctx, userID, hash, nowUTC())
}

// VerifyPassword checks a password against the stored hash, maintaining the
// failure streak: a mismatch records a failure, a match resets the streak,
// updates last login, and transparently re-hashes credentials stored under
// legacy or weaker parameters.
func (e *Engine) VerifyPassword(ctx context.Context, userID, candidate string) (bool, error) {
	if !e.ready() {
		return false, ErrEngineNotReady
	}

	user, err := e.users.GetUserByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUserNotFound, err)
	}
	if user == nil {
		return false, ErrUserNotFound
	}

	if !e.hasher.Verify(candidate, user.PasswordHash) {
		locked, lockErr := e.lockout.RecordFailure(ctx, userID)
		if lockErr == nil && locked {
			e.metricInc(MetricLockoutTriggered)
			e.emitAudit(ctx, auditEventLockoutTriggered, audit.CategoryAuth,
				false, userID, "", ErrInvalidCredentials, nil)
		}
		return false, nil
	}

	// Both best-effort: a Redis or provider hiccup must not fail a
	// correct password.
	_ = e.lockout.Reset(ctx, userID)
	_ = e.users.UpdateLastLogin(ctx, userID, nowUTC())

	if e.hasher.NeedsUpgrade(user.PasswordHash) {
		if hash, hashErr := e.hasher.Hash(candidate); hashErr == nil {
			_ = e.users.UpdatePasswordHash(ctx, userID, hash, user.PasswordChangedAt)
		}
	}

	return true, nil
}
