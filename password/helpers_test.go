package password

import (
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/scrypt"
)

// legacyScryptHash builds a stored hash in the pre-migration scrypt format.
func legacyScryptHash(t *testing.T, password string) string {
	t.Helper()

	salt := []byte("0123456789abcdef")
	key, err := scrypt.Key([]byte(password), salt, 1<<14, 8, 1, 32)
	if err != nil {
		t.Fatalf("scrypt key derivation failed: %v", err)
	}

	return fmt.Sprintf(
		"$scrypt$N=%d,r=8,p=1$%s$%s",
		1<<14,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

func mustParseTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return parsed
}
