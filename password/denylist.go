package password

import "strings"

// commonPasswords is the fixed denylist of passwords seen in public breach
// corpora. Membership is a hard failure regardless of the computed score.
var commonPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"passw0rd":    {},
	"123456":      {},
	"1234567":     {},
	"12345678":    {},
	"123456789":   {},
	"1234567890":  {},
	"qwerty":      {},
	"qwerty123":   {},
	"qwertyuiop":  {},
	"abc123":      {},
	"iloveyou":    {},
	"admin":       {},
	"admin123":    {},
	"welcome":     {},
	"welcome1":    {},
	"letmein":     {},
	"monkey":      {},
	"dragon":      {},
	"sunshine":    {},
	"princess":    {},
	"football":    {},
	"baseball":    {},
	"master":      {},
	"shadow":      {},
	"superman":    {},
	"batman":      {},
	"trustno1":    {},
	"111111":      {},
	"000000":      {},
	"letmein123":  {},
	"changeme":    {},
	"secret":      {},
}

func isCommonPassword(password string) bool {
	_, ok := commonPasswords[strings.ToLower(password)]
	return ok
}
