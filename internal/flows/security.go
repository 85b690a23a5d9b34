package flows

import (
	"time"

	"github.com/sentinelforge/sentinel/device"
	"github.com/sentinelforge/sentinel/risk"
)

// Sign-in security thresholds.
const (
	// MFARiskThreshold forces MFA when the contextual risk score reaches it.
	MFARiskThreshold = 50

	// FailedLoginWarnAt adds a warning once this many recent failures exist.
	FailedLoginWarnAt = 3
	// FailedLoginBlockAt blocks sign-in outright.
	FailedLoginBlockAt = 5
)

// Sign-in warnings and block reasons.
const (
	WarnFailedLogins     = "multiple recent failed sign-in attempts"
	WarnSecurityDegraded = "security check degraded, denying by default"

	BlockAccountInactive  = "account_inactive"
	BlockAccountLocked    = "account_locked"
	BlockTooManyFailures  = "too_many_failed_attempts"
	BlockSecurityDegraded = "security_check_error"
)

// AccountSnapshot is the read-only view of user security attributes the
// sign-in check consumes. The root engine fills it from its user provider.
type AccountSnapshot struct {
	UserID            string
	Active            bool
	LockedUntil       time.Time
	FailedLogins      int
	MFAEnabled        bool
	PasswordChangedAt time.Time
	SecurityLevel     risk.Level
}

// SecurityContext carries the request-scoped signals for a sign-in check.
type SecurityContext struct {
	IPAddress string
	Device    *device.Descriptor
	RiskScore int
}

// SecurityDeps configures the sign-in security check.
type SecurityDeps struct {
	Now            func() time.Time
	PasswordMaxAge time.Duration // 0 disables the password-age rule
}

// SecurityOutcome is the sign-in decision for one user.
type SecurityOutcome struct {
	IsValid                bool
	RequiresMFA            bool
	RequiresPasswordChange bool
	Warnings               []string
	BlockedReasons         []string
}

// RunUserSecurity decides whether a sign-in may proceed and which
// obligations it carries. Any panic resolves fail-secure to invalid with
// MFA required.
func RunUserSecurity(user AccountSnapshot, sctx SecurityContext, deps SecurityDeps) (out SecurityOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = SecurityOutcome{
				IsValid:        false,
				RequiresMFA:    true,
				Warnings:       []string{WarnSecurityDegraded},
				BlockedReasons: []string{BlockSecurityDegraded},
			}
		}
	}()

	now := deps.Now()
	out = SecurityOutcome{IsValid: true}

	block := func(reason string) {
		out.IsValid = false
		out.BlockedReasons = append(out.BlockedReasons, reason)
	}

	if !user.Active {
		block(BlockAccountInactive)
	}
	if !user.LockedUntil.IsZero() && user.LockedUntil.After(now) {
		block(BlockAccountLocked)
	}

	if deps.PasswordMaxAge > 0 &&
		!user.PasswordChangedAt.IsZero() &&
		now.Sub(user.PasswordChangedAt) > deps.PasswordMaxAge {
		out.RequiresPasswordChange = true
	}

	if user.MFAEnabled ||
		sctx.RiskScore >= MFARiskThreshold ||
		user.SecurityLevel.AtLeast(risk.LevelHighRisk) {
		out.RequiresMFA = true
	}

	if user.FailedLogins >= FailedLoginBlockAt {
		block(BlockTooManyFailures)
	} else if user.FailedLogins >= FailedLoginWarnAt {
		out.Warnings = append(out.Warnings, WarnFailedLogins)
	}

	return out
}
