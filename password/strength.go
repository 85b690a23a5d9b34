package password

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// StrengthResult is the outcome of a single strength evaluation. Validity and
// score are independent axes: a password can score well and still be invalid
// because a hard rule failed.
type StrengthResult struct {
	Valid       bool
	Score       int
	Violations  []string
	Warnings    []string
	Suggestions []string
	CrackTime   string
}

// Context carries optional user attributes for an evaluation. Passwords that
// contain the user's own identifying tokens are rejected outright.
type Context struct {
	Email             string
	Name              string
	PreviousPasswords []string
}

// Evaluator scores passwords against a fixed Policy. It holds no mutable
// state and is safe for concurrent use.
type Evaluator struct {
	policy Policy
}

// NewEvaluator creates an Evaluator for the given policy. The policy must
// already be validated.
func NewEvaluator(policy Policy) *Evaluator {
	return &Evaluator{policy: policy}
}

// Guess-rate assumption for the crack-time estimate: a well-funded offline
// attack against a fast hash. Deliberately pessimistic.
const guessesPerSecond = 1e10

const specialChars = "!@#$%^&*()-_=+[]{};:'\",.<>/?`~\\|"

// Evaluate scores a candidate password. Pure function of the inputs and the
// configured policy; the same input always produces the same result.
func (e *Evaluator) Evaluate(candidate string, evalCtx Context) StrengthResult {
	res := StrengthResult{}
	score := 0

	length := len([]rune(candidate))

	if length < e.policy.MinLength {
		res.Violations = append(res.Violations,
			fmt.Sprintf("must be at least %d characters", e.policy.MinLength))
	} else {
		score += 10
	}
	if e.policy.MaxLength > 0 && length > e.policy.MaxLength {
		res.Violations = append(res.Violations,
			fmt.Sprintf("must be at most %d characters", e.policy.MaxLength))
	}

	if length >= 12 {
		score += 10
	}
	if length >= 16 {
		score += 10
	}
	if length >= 20 {
		score += 10
	}
	if length < 12 {
		res.Suggestions = append(res.Suggestions, "use 12 or more characters")
	}

	classes := classifyRunes(candidate)

	if classes.lower {
		score += 10
	} else if e.policy.RequireLowercase {
		res.Violations = append(res.Violations, "must contain a lowercase letter")
	}
	if classes.upper {
		score += 10
	} else if e.policy.RequireUppercase {
		res.Violations = append(res.Violations, "must contain an uppercase letter")
	}
	if classes.digit {
		score += 10
	} else if e.policy.RequireDigit {
		res.Violations = append(res.Violations, "must contain a digit")
	}
	if classes.special {
		score += 10
	} else if e.policy.RequireSpecial {
		res.Violations = append(res.Violations, "must contain a special character")
	}

	if e.policy.MinSpecialChars > 0 && classes.specialCount < e.policy.MinSpecialChars {
		// Zero specials under RequireSpecial with a minimum of one is
		// already covered by the must-contain violation above.
		if classes.special || !e.policy.RequireSpecial || e.policy.MinSpecialChars > 1 {
			res.Violations = append(res.Violations,
				fmt.Sprintf("must contain at least %d special characters", e.policy.MinSpecialChars))
		}
	}

	if classes.allFour() {
		score += 10
	} else {
		res.Suggestions = append(res.Suggestions, "mix uppercase, lowercase, digits, and symbols")
	}

	if length > 0 && diversityRatio(candidate) > 0.7 {
		score += 10
	} else if length > 0 {
		res.Suggestions = append(res.Suggestions, "avoid repeating the same characters")
	}

	if isCommonPassword(candidate) {
		score -= 30
		res.Violations = append(res.Violations, "is a commonly used password")
	}

	if hasRepeatedRun(candidate, 3) {
		score -= 10
		res.Warnings = append(res.Warnings, "contains repeated characters")
		res.Suggestions = append(res.Suggestions, "avoid repeated character runs")
	}

	if hasSequentialRun(candidate, 3) {
		score -= 10
		res.Warnings = append(res.Warnings, "contains a sequential character run")
		res.Suggestions = append(res.Suggestions, "avoid sequences like abc or 123")
	}

	if hasKeyboardRun(candidate, 3) {
		score -= 10
		res.Warnings = append(res.Warnings, "contains a keyboard pattern")
		res.Suggestions = append(res.Suggestions, "avoid keyboard patterns like qwerty")
	}

	for _, token := range personalTokens(evalCtx) {
		if strings.Contains(strings.ToLower(candidate), token) {
			score -= 20
			res.Violations = append(res.Violations, "must not contain your name or email")
		}
	}

	for _, prev := range evalCtx.PreviousPasswords {
		if prev != "" && prev == candidate {
			res.Violations = append(res.Violations, "must differ from a previous password")
			break
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	res.Score = score
	res.Valid = len(res.Violations) == 0
	res.CrackTime = estimateCrackTime(length, classes)
	return res
}

type runeClasses struct {
	lower        bool
	upper        bool
	digit        bool
	special      bool
	specialCount int
}

func (c runeClasses) allFour() bool {
	return c.lower && c.upper && c.digit && c.special
}

func classifyRunes(s string) runeClasses {
	var c runeClasses
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			c.lower = true
		case unicode.IsUpper(r):
			c.upper = true
		case unicode.IsDigit(r):
			c.digit = true
		default:
			c.special = true
			c.specialCount++
		}
	}
	return c
}

func diversityRatio(s string) float64 {
	runes := []rune(s)
	seen := make(map[rune]struct{}, len(runes))
	for _, r := range runes {
		seen[r] = struct{}{}
	}
	return float64(len(seen)) / float64(len(runes))
}

func hasRepeatedRun(s string, minRun int) bool {
	runes := []rune(s)
	run := 1
	for i := 1; i < len(runes); i++ {
		if runes[i] == runes[i-1] {
			run++
			if run >= minRun {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}

// hasSequentialRun detects ascending or descending alphabetic/numeric runs
// such as "abc", "321", or "xyz".
func hasSequentialRun(s string, minRun int) bool {
	runes := []rune(strings.ToLower(s))
	asc, desc := 1, 1
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		sameClass := (isAlpha(prev) && isAlpha(cur)) || (unicode.IsDigit(prev) && unicode.IsDigit(cur))
		if sameClass && cur == prev+1 {
			asc++
		} else {
			asc = 1
		}
		if sameClass && cur == prev-1 {
			desc++
		} else {
			desc = 1
		}
		if asc >= minRun || desc >= minRun {
			return true
		}
	}
	return false
}

func isAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

var keyboardRows = []string{
	"qwertyuiop",
	"asdfghjkl",
	"zxcvbnm",
}

// hasKeyboardRun detects runs of physically adjacent letters on a QWERTY row,
// in either direction.
func hasKeyboardRun(s string, minRun int) bool {
	lower := strings.ToLower(s)
	for _, row := range keyboardRows {
		reversed := reverse(row)
		for i := 0; i+minRun <= len(row); i++ {
			if strings.Contains(lower, row[i:i+minRun]) {
				return true
			}
		}
		for i := 0; i+minRun <= len(reversed); i++ {
			if strings.Contains(lower, reversed[i:i+minRun]) {
				return true
			}
		}
	}
	return false
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// personalTokens extracts lowercase tokens longer than 2 characters from the
// email local-part and the name. These must not appear inside a password.
func personalTokens(evalCtx Context) []string {
	var tokens []string

	if evalCtx.Email != "" {
		local := evalCtx.Email
		if at := strings.IndexByte(local, '@'); at >= 0 {
			local = local[:at]
		}
		for _, t := range splitTokens(local) {
			if len(t) > 2 {
				tokens = append(tokens, strings.ToLower(t))
			}
		}
	}

	for _, t := range splitTokens(evalCtx.Name) {
		if len(t) > 2 {
			tokens = append(tokens, strings.ToLower(t))
		}
	}

	return tokens
}

func splitTokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// estimateCrackTime buckets the average-case offline guessing time for the
// password's character space into a human-readable string.
func estimateCrackTime(length int, classes runeClasses) string {
	if length == 0 {
		return "instant"
	}

	space := 0.0
	if classes.lower {
		space += 26
	}
	if classes.upper {
		space += 26
	}
	if classes.digit {
		space += 10
	}
	if classes.special {
		space += 32
	}
	if space == 0 {
		space = 26
	}

	combinations := math.Pow(space, float64(length))
	seconds := combinations / 2 / guessesPerSecond

	const (
		minute  = 60
		hour    = 60 * minute
		day     = 24 * hour
		year    = 365 * day
		century = 100 * year
	)

	switch {
	case seconds < minute:
		return "less than a minute"
	case seconds < hour:
		return fmt.Sprintf("%.0f minutes", seconds/minute)
	case seconds < day:
		return fmt.Sprintf("%.0f hours", seconds/hour)
	case seconds < year:
		return fmt.Sprintf("%.0f days", seconds/day)
	case seconds < century:
		return fmt.Sprintf("%.0f years", seconds/year)
	default:
		return "centuries"
	}
}
