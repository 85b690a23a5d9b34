package password

import (
	"errors"
	"time"
)

// Policy holds the hard rules a password must satisfy. It is configured at
// startup and treated as immutable afterwards.
type Policy struct {
	MinLength        int
	MaxLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireDigit     bool
	RequireSpecial   bool
	MinSpecialChars  int

	// ReuseWindow is the number of most recent prior hashes a new password
	// is compared against. 0 disables reuse prevention.
	ReuseWindow int

	// MaxAge is the password expiry horizon. 0 disables expiry.
	MaxAge time.Duration
}

// DefaultPolicy returns the baseline policy: 8–128 characters, all four
// character classes, one special character, 5-hash reuse window, 90-day expiry.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:        8,
		MaxLength:        128,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireDigit:     true,
		RequireSpecial:   true,
		MinSpecialChars:  1,
		ReuseWindow:      5,
		MaxAge:           90 * 24 * time.Hour,
	}
}

// Validate rejects configurations that cannot be enforced. Misconfiguration
// is a programmer error and surfaces at startup, not at request time.
func (p Policy) Validate() error {
	if p.MinLength < 1 {
		return errors.New("password policy: MinLength must be >= 1")
	}
	if p.MaxLength > 0 && p.MaxLength < p.MinLength {
		return errors.New("password policy: MaxLength must be >= MinLength")
	}
	if p.MinSpecialChars < 0 {
		return errors.New("password policy: MinSpecialChars must be >= 0")
	}
	if p.RequireSpecial && p.MinSpecialChars == 0 {
		return errors.New("password policy: RequireSpecial needs MinSpecialChars >= 1")
	}
	if p.ReuseWindow < 0 {
		return errors.New("password policy: ReuseWindow must be >= 0")
	}
	if p.MaxAge < 0 {
		return errors.New("password policy: MaxAge must be >= 0")
	}
	return nil
}

// Expired reports whether a password last changed at changedAt has exceeded
// the policy's maximum age. A zero changedAt means the age is unknown and is
// treated as not expired.
func (p Policy) Expired(changedAt time.Time, now time.Time) bool {
	if p.MaxAge <= 0 || changedAt.IsZero() {
		return false
	}
	return now.Sub(changedAt) > p.MaxAge
}
