package risk

// Level is the discrete security posture derived from a risk score.
type Level string

const (
	LevelNormal   Level = "normal"
	LevelElevated Level = "elevated"
	LevelHighRisk Level = "high_risk"
	LevelCritical Level = "critical"
)

// Score thresholds for level boundaries. Checked highest first.
const (
	criticalThreshold = 80
	highRiskThreshold = 60
	elevatedThreshold = 30
)

// LevelForScore maps a clamped score onto its security level.
func LevelForScore(score int) Level {
	switch {
	case score >= criticalThreshold:
		return LevelCritical
	case score >= highRiskThreshold:
		return LevelHighRisk
	case score >= elevatedThreshold:
		return LevelElevated
	default:
		return LevelNormal
	}
}

// Severity orders levels for comparisons; higher is more severe.
func (l Level) Severity() int {
	switch l {
	case LevelCritical:
		return 3
	case LevelHighRisk:
		return 2
	case LevelElevated:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether l is as severe as other.
func (l Level) AtLeast(other Level) bool {
	return l.Severity() >= other.Severity()
}
