package device

import "strings"

// Classify infers device type, OS, browser, and platform from a raw client
// signature (typically a User-Agent string). An empty signature yields
// TypeUnknown with empty fields; a non-empty one without mobile or tablet
// markers classifies as desktop.
func Classify(signature string) Descriptor {
	desc := Descriptor{
		Type:         TypeUnknown,
		RawSignature: signature,
	}
	if strings.TrimSpace(signature) == "" {
		return desc
	}

	lower := strings.ToLower(signature)

	desc.OS = matchOS(lower)
	desc.Browser = matchBrowser(lower)
	desc.Type = matchType(lower)
	desc.Platform = desc.OS

	return desc
}

type substringRule struct {
	marker string
	value  string
}

// Order matters: more specific markers first.
var osRules = []substringRule{
	{"windows nt 10", "Windows 10"},
	{"windows nt 6.3", "Windows 8.1"},
	{"windows nt 6.1", "Windows 7"},
	{"windows", "Windows"},
	{"iphone os", "iOS"},
	{"ipad", "iPadOS"},
	{"mac os x", "macOS"},
	{"android", "Android"},
	{"cros", "ChromeOS"},
	{"linux", "Linux"},
}

// Chromium-family browsers embed competitor tokens, so the distinctive
// markers (edg, opr) must match before "chrome", and "chrome" before
// "safari".
var browserRules = []substringRule{
	{"edg/", "Edge"},
	{"edge", "Edge"},
	{"opr/", "Opera"},
	{"opera", "Opera"},
	{"firefox", "Firefox"},
	{"chrome", "Chrome"},
	{"safari", "Safari"},
}

func matchOS(lower string) string {
	for _, rule := range osRules {
		if strings.Contains(lower, rule.marker) {
			return rule.value
		}
	}
	return ""
}

func matchBrowser(lower string) string {
	for _, rule := range browserRules {
		if strings.Contains(lower, rule.marker) {
			return rule.value
		}
	}
	return ""
}

func matchType(lower string) Type {
	switch {
	case strings.Contains(lower, "ipad") || strings.Contains(lower, "tablet"):
		return TypeTablet
	case strings.Contains(lower, "mobile") ||
		strings.Contains(lower, "iphone") ||
		strings.Contains(lower, "android") ||
		strings.Contains(lower, "phone"):
		return TypeMobile
	default:
		return TypeDesktop
	}
}
