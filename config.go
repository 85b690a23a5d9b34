package sentinel

import (
	"errors"
	"time"

	"github.com/sentinelforge/sentinel/internal/limiters"
	"github.com/sentinelforge/sentinel/password"
)

// Config groups every tunable of the engine by concern. Build copies it, so
// mutating a Config after Build has no effect on a running engine.
type Config struct {
	Password PasswordConfig
	Risk     RiskConfig
	Session  SessionConfig
	Lockout  LockoutConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
	Attest   AttestConfig
	Sweep    SweepConfig
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds the policy rules and Argon2id cost parameters.
type PasswordConfig struct {
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

	// Argon2id cost parameters for new hashes.
	Memory      uint32 // KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func (c PasswordConfig) policy() password.Policy {
	return password.Policy{
		MinLength:        c.MinLength,
		MaxLength:        c.MaxLength,
		RequireUppercase: c.RequireUppercase,
		RequireLowercase: c.RequireLowercase,
		RequireDigit:     c.RequireDigit,
		RequireSpecial:   c.RequireSpecial,
		MinSpecialChars:  c.MinSpecialChars,
		ReuseWindow:      c.ReuseWindow,
		MaxAge:           c.MaxAge,
	}
}

func (c PasswordConfig) argon2() password.Argon2Params {
	return password.Argon2Params{
		Memory:      c.Memory,
		Time:        c.Time,
		Parallelism: c.Parallelism,
		SaltLength:  c.SaltLength,
		KeyLength:   c.KeyLength,
	}
}

/*
====================================
RISK CONFIG
====================================
*/

// RiskConfig tunes the geographic rules of the risk engine. Country codes
// are ISO 3166-1 alpha-2 and matched case-insensitively.
type RiskConfig struct {
	SuspiciousCountries []string
	TrustedCountries    []string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig tunes session storage and lifecycle.
type SessionConfig struct {
	RedisPrefix string
	// TTL is the storage expiry of a session record.
	TTL time.Duration
	// MaxSessionAge is the absolute lifetime enforced by validation,
	// independent of storage TTL.
	MaxSessionAge time.Duration
	// RevokeWorkers bounds the fan-out of bulk revocations. 0 uses the
	// default pool size.
	RevokeWorkers int
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig tunes the failed-authentication tracker.
type LockoutConfig struct {
	Enabled   bool
	Threshold int
	Window    time.Duration // 0 = counter persists until reset
}

func (c LockoutConfig) limiter() limiters.LockoutConfig {
	return limiters.LockoutConfig{
		Enabled:   c.Enabled,
		Threshold: c.Threshold,
		Window:    c.Window,
	}
}

/*
====================================
AUDIT + METRICS CONFIG
====================================
*/

// AuditConfig tunes the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of backpressuring the caller when
	// the buffer is full.
	DropIfFull bool
}

// MetricsConfig tunes the in-process metrics registry.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
ATTESTATION CONFIG
====================================
*/

// AttestConfig tunes signed session attestations.
type AttestConfig struct {
	Enabled       bool
	TTL           time.Duration
	SigningMethod string // "ed25519" (default) or "hs256"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	KeyID         string
	Leeway        time.Duration
}

/*
====================================
SWEEP CONFIG
====================================
*/

// SweepConfig tunes the background expiry sweeper.
type SweepConfig struct {
	Enabled  bool
	Interval time.Duration
	// BatchSize is the SCAN page size. 0 uses the store default.
	BatchSize int64
}

// DefaultConfig returns the baseline configuration: 8+ character passwords
// with all four character classes, 30-day sessions, a 5-failure lockout over
// 15 minutes, and metrics on.
func DefaultConfig() Config {
	return Config{
		Password: PasswordConfig{
			MinLength:        8,
			MaxLength:        128,
			RequireUppercase: true,
			RequireLowercase: true,
			RequireDigit:     true,
			RequireSpecial:   true,
			MinSpecialChars:  1,
			ReuseWindow:      5,
			MaxAge:           90 * 24 * time.Hour,
			Memory:           64 * 1024,
			Time:             3,
			Parallelism:      2,
			SaltLength:       16,
			KeyLength:        32,
		},
		Session: SessionConfig{
			RedisPrefix:   "ss",
			TTL:           30 * 24 * time.Hour,
			MaxSessionAge: 30 * 24 * time.Hour,
		},
		Lockout: LockoutConfig{
			Enabled:   true,
			Threshold: 5,
			Window:    15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Attest: AttestConfig{
			Enabled:       false,
			TTL:           5 * time.Minute,
			SigningMethod: "ed25519",
			Leeway:        30 * time.Second,
		},
		Sweep: SweepConfig{
			Enabled:   false,
			Interval:  time.Hour,
			BatchSize: 128,
		},
	}
}

// ProductionConfig returns a hardened preset on top of DefaultConfig:
// 12+ character passwords with a 10-hash reuse window, 7-day sessions with
// shorter storage TTL, auditing and the hourly sweeper on, and latency
// histograms enabled.
func ProductionConfig() Config {
	cfg := DefaultConfig()

	cfg.Password.MinLength = 12
	cfg.Password.MinSpecialChars = 2
	cfg.Password.ReuseWindow = 10
	cfg.Password.MaxAge = 60 * 24 * time.Hour

	cfg.Session.TTL = 7 * 24 * time.Hour
	cfg.Session.MaxSessionAge = 7 * 24 * time.Hour

	cfg.Lockout.Threshold = 3
	cfg.Lockout.Window = 30 * time.Minute

	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 1024

	cfg.Metrics.EnableLatencyHistograms = true

	cfg.Sweep.Enabled = true

	return cfg
}

// Validate rejects configurations the engine cannot run with.
// Misconfiguration surfaces at Build, not at request time.
func (c Config) Validate() error {
	if err := c.Password.policy().Validate(); err != nil {
		return err
	}
	if err := c.Password.argon2().Validate(); err != nil {
		return err
	}

	if c.Session.TTL <= 0 {
		return errors.New("config: Session.TTL must be > 0")
	}
	if c.Session.MaxSessionAge <= 0 {
		return errors.New("config: Session.MaxSessionAge must be > 0")
	}
	if c.Session.RevokeWorkers < 0 {
		return errors.New("config: Session.RevokeWorkers must be >= 0")
	}

	if c.Lockout.Enabled {
		if c.Lockout.Threshold < 1 {
			return errors.New("config: Lockout.Threshold must be >= 1")
		}
		if c.Lockout.Window < 0 {
			return errors.New("config: Lockout.Window must be >= 0")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize < 1 {
		return errors.New("config: Audit.BufferSize must be >= 1")
	}

	if c.Attest.Enabled && c.Attest.TTL <= 0 {
		return errors.New("config: Attest.TTL must be > 0")
	}

	if c.Sweep.Enabled {
		if c.Sweep.Interval <= 0 {
			return errors.New("config: Sweep.Interval must be > 0")
		}
		if c.Sweep.BatchSize < 0 {
			return errors.New("config: Sweep.BatchSize must be >= 0")
		}
	}

	return nil
}

// cloneConfig deep-copies the slices so a caller mutating its Config after
// Build cannot reach into a running engine.
func cloneConfig(cfg Config) Config {
	out := cfg
	out.Risk.SuspiciousCountries = cloneStrings(cfg.Risk.SuspiciousCountries)
	out.Risk.TrustedCountries = cloneStrings(cfg.Risk.TrustedCountries)
	out.Attest.PrivateKey = cloneBytes(cfg.Attest.PrivateKey)
	out.Attest.PublicKey = cloneBytes(cfg.Attest.PublicKey)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneBytes(in []byte) []byte {
	if in == nil {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
