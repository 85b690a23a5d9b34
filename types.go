package sentinel

import (
	"context"
	"io"
	"time"

	"github.com/sentinelforge/sentinel/device"
	"github.com/sentinelforge/sentinel/geo"
	internalaudit "github.com/sentinelforge/sentinel/internal/audit"
	"github.com/sentinelforge/sentinel/risk"
)

// Audit types are aliased from the internal package so sinks can be
// implemented without importing module internals.
type (
	// AuditEvent is one emitted audit record.
	AuditEvent = internalaudit.Event
	// AuditSink receives emitted audit events.
	AuditSink = internalaudit.Sink
	// NoOpSink drops audit events.
	NoOpSink = internalaudit.NoOpSink
	// ChannelSink buffers audit events in a channel.
	ChannelSink = internalaudit.ChannelSink
	// JSONWriterSink writes one JSON object per line.
	JSONWriterSink = internalaudit.JSONWriterSink
)

// NewChannelSink creates a ChannelSink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a JSONWriterSink on w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// UserRecord is the engine's view of one user account. The provider owns
// the storage; the engine only reads it and writes back through the
// narrow UserProvider methods.
type UserRecord struct {
	UserID string
	Email  string
	Name   string

	Active      bool
	LockedUntil time.Time
	MFAEnabled  bool

	PasswordHash        string
	PriorPasswordHashes []string
	PasswordChangedAt   time.Time

	SecurityLevel risk.Level
}

// UserProvider connects the engine to the application's user storage.
// Implementations must be safe for concurrent use.
type UserProvider interface {
	GetUserByID(ctx context.Context, userID string) (*UserRecord, error)

	// UpdatePasswordHash persists a new hash after a password change or a
	// transparent hash upgrade. The provider is expected to rotate the old
	// hash into PriorPasswordHashes.
	UpdatePasswordHash(ctx context.Context, userID, hash string, changedAt time.Time) error

	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
}

// SessionInfo is the public projection of one stored session.
type SessionInfo struct {
	Token          string            `json:"token"`
	UserID         string            `json:"user_id"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	Device         device.Descriptor `json:"device"`
	Location       *geo.Location     `json:"location,omitempty"`
	IPAddress      string            `json:"ip_address,omitempty"`
	RiskScore      int               `json:"risk_score"`
	SecurityLevel  risk.Level        `json:"security_level"`
	Revoked        bool              `json:"revoked,omitempty"`
	// Current is true when the token matches the one attached to the
	// request context via WithSessionToken.
	Current bool `json:"current,omitempty"`
}

// CreateSessionInput carries the caller-supplied parameters of a session
// creation. Fingerprint is the stable client-side device fingerprint;
// leaving it empty raises the assessed risk.
type CreateSessionInput struct {
	UserID      string
	Fingerprint string
	// MFACompleted attests that the caller already passed a second factor
	// this sign-in. Without it, a security check that demands MFA fails
	// creation with ErrMFARequired.
	MFACompleted bool
	// TTL overrides the configured session storage TTL when > 0.
	TTL time.Duration
}

// CreateSessionResult is the outcome of a successful session creation.
type CreateSessionResult struct {
	Token      string
	ExpiresAt  time.Time
	Assessment risk.Assessment
	// Attestation is a signed token binding the session to its assessed
	// risk. Empty unless attestation is enabled.
	Attestation string

	RequiresPasswordChange bool
	Warnings               []string
}

// ValidationResult is the outcome of one session validation.
type ValidationResult struct {
	Valid   bool
	Session *SessionInfo

	// Revoked reports that this validation revoked the session.
	Revoked      bool
	RevokeReason string

	Warnings        []string
	Recommendations []string

	// Attestation is issued only for valid sessions when attestation is
	// enabled.
	Attestation string
}

// UserSecurityResult is the outcome of a sign-in security check.
type UserSecurityResult struct {
	Valid                  bool
	RequiresMFA            bool
	RequiresPasswordChange bool
	Warnings               []string
	BlockedReasons         []string
}

// RevokeSummary aggregates a bulk revocation. Complete is false when the
// token list could not be read and some sessions may remain active.
type RevokeSummary struct {
	Revoked  int
	Complete bool
}

// SweepSummary aggregates one expiry sweep pass.
type SweepSummary struct {
	Scanned int
	Revoked int
}
