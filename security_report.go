package sentinel

import "time"

// SecurityReport summarizes the engine's effective security posture for
// startup logs and operational review. It exposes configuration, never
// secrets.
type SecurityReport struct {
	SessionTTL     time.Duration
	MaxSessionAge  time.Duration
	Argon2         PasswordConfigReport
	PasswordPolicy PasswordPolicyReport

	LockoutEnabled   bool
	LockoutThreshold int
	LockoutWindow    time.Duration

	SuspiciousCountries int
	TrustedCountries    int
	GeoResolverActive   bool

	AttestationEnabled bool
	AttestationMethod  string
	SweepEnabled       bool
	SweepInterval      time.Duration
	AuditEnabled       bool
	MetricsEnabled     bool
}

// PasswordConfigReport mirrors the Argon2id cost parameters in use.
type PasswordConfigReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// PasswordPolicyReport mirrors the hard password rules in use.
type PasswordPolicyReport struct {
	MinLength   int
	MaxLength   int
	ReuseWindow int
	MaxAge      time.Duration
}

// SecurityReport builds the posture summary from the engine's frozen
// configuration.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	report := SecurityReport{
		SessionTTL:    e.config.Session.TTL,
		MaxSessionAge: e.config.Session.MaxSessionAge,
		Argon2: PasswordConfigReport{
			Memory:      e.config.Password.Memory,
			Time:        e.config.Password.Time,
			Parallelism: e.config.Password.Parallelism,
			SaltLength:  e.config.Password.SaltLength,
			KeyLength:   e.config.Password.KeyLength,
		},
		PasswordPolicy: PasswordPolicyReport{
			MinLength:   e.config.Password.MinLength,
			MaxLength:   e.config.Password.MaxLength,
			ReuseWindow: e.config.Password.ReuseWindow,
			MaxAge:      e.config.Password.MaxAge,
		},
		LockoutEnabled:      e.config.Lockout.Enabled,
		LockoutThreshold:    e.config.Lockout.Threshold,
		LockoutWindow:       e.config.Lockout.Window,
		SuspiciousCountries: len(e.config.Risk.SuspiciousCountries),
		TrustedCountries:    len(e.config.Risk.TrustedCountries),
		GeoResolverActive:   e.geo != nil,
		AttestationEnabled:  e.attest != nil,
		SweepEnabled:        e.sweeper != nil,
		SweepInterval:       e.config.Sweep.Interval,
		AuditEnabled:        e.audit != nil,
		MetricsEnabled:      e.metrics.Enabled(),
	}

	if e.attest != nil {
		report.AttestationMethod = e.config.Attest.SigningMethod
	}

	return report
}
