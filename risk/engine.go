package risk

import (
	"time"

	"github.com/sentinelforge/sentinel/device"
	"github.com/sentinelforge/sentinel/geo"
)

// Factor tags appended to an assessment, one per triggered rule.
const (
	FactorNewDevice           = "new_device"
	FactorMissingFingerprint  = "missing_fingerprint"
	FactorSuspiciousCountry   = "suspicious_country"
	FactorUntrustedCountry    = "untrusted_country"
	FactorNewLocation         = "new_location"
	FactorUnusualLoginTime    = "unusual_login_time"
	FactorConsecutiveFailures = "consecutive_failures"
	FactorMissingIP           = "missing_ip"
	FactorSessionVelocity     = "session_velocity"
	FactorCalculationError    = "calculation_error"
)

// Rule weights.
const (
	weightNewDevice          = 25
	weightMissingFingerprint = 10
	weightSuspiciousCountry  = 40
	weightUntrustedCountry   = 15
	weightNewLocation        = 20
	weightUnusualLoginTime   = 10
	weightPerFailure         = 15
	maxFailureWeight         = 60
	weightMissingIP          = 15
	weightSessionVelocity    = 20

	sessionVelocityThreshold = 10

	failSafeScore = 25
)

// Suspicious login window, local time, inclusive start, exclusive end.
const (
	suspiciousHourStart = 2
	suspiciousHourEnd   = 6
)

// Context carries the signals available at assessment time. All fields
// except UserID are optional; absent signals score as their own risk rules
// where the rules say so (missing IP, missing fingerprint).
type Context struct {
	UserID    string
	IPAddress string

	Device   *device.Descriptor
	Location *geo.Location

	IsNewDevice   bool
	IsNewLocation bool

	// LoginTime is the local login time. Zero means unknown, which skips
	// the time-of-day rule.
	LoginTime time.Time

	ConsecutiveFailures int
	SessionsCreated24h  int
}

// Assessment is the immutable result of one scoring pass.
type Assessment struct {
	Score           int       `json:"score"`
	Level           Level     `json:"level"`
	Factors         []string  `json:"factors"`
	Recommendations []string  `json:"recommendations"`
	AssessedAt      time.Time `json:"assessed_at"`
}

// Config tunes the country lists the geographic rules consult.
type Config struct {
	// SuspiciousCountries scores +40 on match. ISO 3166-1 alpha-2 codes.
	SuspiciousCountries []string
	// TrustedCountries exempts a resolved country from the untrusted
	// penalty. A country in neither list scores +15.
	TrustedCountries []string
}

// Engine scores assessment contexts. Safe for concurrent use.
type Engine struct {
	suspicious map[string]struct{}
	trusted    map[string]struct{}
	now        func() time.Time
}

// NewEngine builds an engine from cfg. Country codes are matched
// case-insensitively by upper-casing at construction.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		suspicious: countrySet(cfg.SuspiciousCountries),
		trusted:    countrySet(cfg.TrustedCountries),
		now:        time.Now,
	}
}

func countrySet(codes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		set[upperCountry(c)] = struct{}{}
	}
	return set
}

func upperCountry(c string) string {
	b := []byte(c)
	for i := range b {
		if b[i] >= 'a' && b[i] <= 'z' {
			b[i] -= 'a' - 'A'
		}
	}
	return string(b)
}

// Assess scores ctx. It never panics outward: any internal failure yields
// the fail-safe assessment (score 25, elevated, calculation_error) so a
// broken signal path can never report a context as normal.
func (e *Engine) Assess(ctx Context) (out Assessment) {
	defer func() {
		if r := recover(); r != nil {
			out = e.failSafe()
		}
	}()
	return e.assess(ctx)
}

func (e *Engine) assess(ctx Context) Assessment {
	a := Assessment{AssessedAt: e.now()}
	score := 0

	add := func(weight int, factor string, recs ...string) {
		score += weight
		a.Factors = append(a.Factors, factor)
		for _, rec := range recs {
			a.Recommendations = appendUnique(a.Recommendations, rec)
		}
	}

	if ctx.IsNewDevice {
		add(weightNewDevice, FactorNewDevice, RecommendVerifyDevice)
	}
	if ctx.Device == nil || ctx.Device.Fingerprint == "" {
		add(weightMissingFingerprint, FactorMissingFingerprint, RecommendEnableTracking)
	}

	if ctx.Location != nil && ctx.Location.CountryCode != "" {
		country := upperCountry(ctx.Location.CountryCode)
		if _, bad := e.suspicious[country]; bad {
			add(weightSuspiciousCountry, FactorSuspiciousCountry, RecommendVerifyIdentity)
		} else if _, ok := e.trusted[country]; !ok {
			add(weightUntrustedCountry, FactorUntrustedCountry, RecommendVerifyIdentity)
		}
	}
	if ctx.IsNewLocation {
		add(weightNewLocation, FactorNewLocation, RecommendVerifyIdentity)
	}

	if !ctx.LoginTime.IsZero() {
		hour := ctx.LoginTime.Hour()
		if hour >= suspiciousHourStart && hour < suspiciousHourEnd {
			add(weightUnusualLoginTime, FactorUnusualLoginTime)
		}
	}

	if ctx.ConsecutiveFailures > 0 {
		weight := ctx.ConsecutiveFailures * weightPerFailure
		if weight > maxFailureWeight {
			weight = maxFailureWeight
		}
		add(weight, FactorConsecutiveFailures, RecommendReviewActivity)
	}

	if ctx.IPAddress == "" {
		add(weightMissingIP, FactorMissingIP, RecommendEnableTracking)
	}

	if ctx.SessionsCreated24h > sessionVelocityThreshold {
		add(weightSessionVelocity, FactorSessionVelocity, RecommendReviewActivity)
	}

	a.Score = clampScore(score)
	a.Level = LevelForScore(a.Score)
	if a.Level.AtLeast(LevelHighRisk) {
		a.Recommendations = appendUnique(a.Recommendations, RecommendRequireMFA)
	}
	return a
}

// failSafe reads the wall clock directly so a broken injected clock cannot
// take the recovery path down with it.
func (e *Engine) failSafe() Assessment {
	return Assessment{
		Score:           failSafeScore,
		Level:           LevelElevated,
		Factors:         []string{FactorCalculationError},
		Recommendations: []string{RecommendDegradedAssessment},
		AssessedAt:      time.Now(),
	}
}

// Recommendation strings. Several factors map onto one recommendation.
const (
	RecommendVerifyDevice       = "verify this device through a second factor before trusting it"
	RecommendVerifyIdentity     = "confirm the user's identity with additional verification"
	RecommendEnableTracking     = "enable device and network tracking for this client"
	RecommendReviewActivity     = "review recent account activity for abuse"
	RecommendRequireMFA         = "require multi-factor authentication for this session"
	RecommendDegradedAssessment = "risk assessment degraded, treat this session with elevated caution"
)

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
