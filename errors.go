package sentinel

import (
	"errors"

	"github.com/sentinelforge/sentinel/session"
)

var (
	// ErrEngineNotReady is returned when an Engine method is called on a nil
	// or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrUserNotFound is returned when the user provider has no record for
	// the given user ID.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when password verification fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrWeakPassword is returned when a candidate password fails a hard
	// policy rule.
	ErrWeakPassword = errors.New("password does not meet policy")
	// ErrPasswordReuse is returned when a new password matches one inside
	// the configured reuse window.
	ErrPasswordReuse = errors.New("new password matches a recent password")
	// ErrSignInBlocked is returned when the user security check denies
	// session creation outright.
	ErrSignInBlocked = errors.New("sign-in blocked by security policy")
	// ErrMFARequired is returned when session creation needs a completed
	// second factor the caller did not attest to.
	ErrMFARequired = errors.New("mfa required")
	// ErrAttestationDisabled is returned when an attestation is requested
	// but no attestation manager is configured.
	ErrAttestationDisabled = errors.New("attestation disabled")

	// ErrSessionNotFound aliases the store sentinel so callers can match it
	// without importing the session package.
	ErrSessionNotFound = session.ErrSessionNotFound
	// ErrSessionRevoked aliases the store sentinel for revoked sessions.
	ErrSessionRevoked = session.ErrSessionRevoked
	// ErrStoreUnavailable aliases the store sentinel for Redis outages.
	ErrStoreUnavailable = session.ErrRedisUnavailable
)
