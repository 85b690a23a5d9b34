package internal

import "testing"

func TestSessionTokenRoundTrip(t *testing.T) {
	tok, err := NewSessionToken()
	if err != nil {
		t.Fatalf("new token: %v", err)
	}

	encoded := tok.String()
	if len(encoded) != 32 {
		t.Fatalf("encoded length = %d, want 32", len(encoded))
	}

	parsed, err := ParseSessionToken(encoded)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != tok {
		t.Fatal("round trip mismatch")
	}
}

func TestParseSessionTokenRejectsMalformed(t *testing.T) {
	for _, input := range []string{"", "short", "!!!not-base64!!!", "AAAA"} {
		if _, err := ParseSessionToken(input); err == nil {
			t.Errorf("ParseSessionToken(%q) accepted malformed input", input)
		}
	}
}

func TestSessionTokensUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		tok, err := NewSessionToken()
		if err != nil {
			t.Fatalf("new token: %v", err)
		}
		s := tok.String()
		if seen[s] {
			t.Fatal("duplicate token generated")
		}
		seen[s] = true
	}
}
