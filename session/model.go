package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sentinelforge/sentinel/device"
	"github.com/sentinelforge/sentinel/geo"
	"github.com/sentinelforge/sentinel/risk"
)

// ErrSessionCorrupt is returned when a stored record cannot be decoded.
var ErrSessionCorrupt = errors.New("session record corrupt")

// Record is the stored form of one session. Once Revoked is set the record
// never transitions back.
type Record struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`

	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`

	Device   device.Descriptor `json:"device"`
	Location *geo.Location     `json:"location,omitempty"`

	RiskScore     int        `json:"risk_score"`
	SecurityLevel risk.Level `json:"security_level"`

	IPAddress string `json:"ip_address,omitempty"`

	Revoked      bool       `json:"revoked,omitempty"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
	RevokeReason string     `json:"revoke_reason,omitempty"`
}

// Fingerprint returns the device fingerprint the record was created with.
func (r *Record) Fingerprint() string {
	return r.Device.Fingerprint
}

// Age returns how long the session has existed as of now.
func (r *Record) Age(now time.Time) time.Duration {
	return now.Sub(r.CreatedAt)
}

// IdleFor returns how long the session has been idle as of now.
func (r *Record) IdleFor(now time.Time) time.Duration {
	return now.Sub(r.LastAccessedAt)
}

// Encode serializes a record for storage.
func Encode(rec *Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCorrupt, err)
	}
	return data, nil
}

// Decode parses a stored record.
func Decode(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCorrupt, err)
	}
	if rec.Token == "" || rec.UserID == "" {
		return nil, fmt.Errorf("%w: missing token or user id", ErrSessionCorrupt)
	}
	return &rec, nil
}
