package sentinel

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// envOverrides is the subset of Config that deployments commonly tune
// without a code change. Unset variables leave the default untouched.
type envOverrides struct {
	RedisPrefix   string        `env:"SENTINEL_SESSION_PREFIX"`
	SessionTTL    time.Duration `env:"SENTINEL_SESSION_TTL"`
	MaxSessionAge time.Duration `env:"SENTINEL_MAX_SESSION_AGE"`
	RevokeWorkers int           `env:"SENTINEL_REVOKE_WORKERS"`

	SuspiciousCountries []string `env:"SENTINEL_SUSPICIOUS_COUNTRIES" envSeparator:","`
	TrustedCountries    []string `env:"SENTINEL_TRUSTED_COUNTRIES" envSeparator:","`

	LockoutThreshold int           `env:"SENTINEL_LOCKOUT_THRESHOLD"`
	LockoutWindow    time.Duration `env:"SENTINEL_LOCKOUT_WINDOW"`

	AuditEnabled    *bool `env:"SENTINEL_AUDIT_ENABLED"`
	AuditBufferSize int   `env:"SENTINEL_AUDIT_BUFFER"`

	MetricsEnabled    *bool `env:"SENTINEL_METRICS_ENABLED"`
	LatencyHistograms *bool `env:"SENTINEL_LATENCY_HISTOGRAMS"`

	SweepEnabled  *bool         `env:"SENTINEL_SWEEP_ENABLED"`
	SweepInterval time.Duration `env:"SENTINEL_SWEEP_INTERVAL"`
}

// ConfigFromEnv layers SENTINEL_* environment variables over DefaultConfig.
// Booleans are pointers so an explicit "false" is distinguishable from unset.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return Config{}, fmt.Errorf("config from env: %w", err)
	}

	if o.RedisPrefix != "" {
		cfg.Session.RedisPrefix = o.RedisPrefix
	}
	if o.SessionTTL > 0 {
		cfg.Session.TTL = o.SessionTTL
	}
	if o.MaxSessionAge > 0 {
		cfg.Session.MaxSessionAge = o.MaxSessionAge
	}
	if o.RevokeWorkers > 0 {
		cfg.Session.RevokeWorkers = o.RevokeWorkers
	}

	if len(o.SuspiciousCountries) > 0 {
		cfg.Risk.SuspiciousCountries = o.SuspiciousCountries
	}
	if len(o.TrustedCountries) > 0 {
		cfg.Risk.TrustedCountries = o.TrustedCountries
	}

	if o.LockoutThreshold > 0 {
		cfg.Lockout.Threshold = o.LockoutThreshold
	}
	if o.LockoutWindow > 0 {
		cfg.Lockout.Window = o.LockoutWindow
	}

	if o.AuditEnabled != nil {
		cfg.Audit.Enabled = *o.AuditEnabled
	}
	if o.AuditBufferSize > 0 {
		cfg.Audit.BufferSize = o.AuditBufferSize
	}

	if o.MetricsEnabled != nil {
		cfg.Metrics.Enabled = *o.MetricsEnabled
	}
	if o.LatencyHistograms != nil {
		cfg.Metrics.EnableLatencyHistograms = *o.LatencyHistograms
	}

	if o.SweepEnabled != nil {
		cfg.Sweep.Enabled = *o.SweepEnabled
	}
	if o.SweepInterval > 0 {
		cfg.Sweep.Interval = o.SweepInterval
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
