package password

import (
	"strings"
	"testing"
)

// Low-cost parameters keep hashing tests fast while staying above the
// accepted floor.
func testParams() Argon2Params {
	return Argon2Params{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
}

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(testParams(), nil)
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}
	return h
}

func TestHashVerifyRoundTrip(t *testing.T) {
	h := newTestHasher(t)

	encoded, err := h.Hash("correct-horse-battery")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("expected argon2id prefix, got %q", encoded)
	}

	if !h.Verify("correct-horse-battery", encoded) {
		t.Fatal("expected verification success")
	}
	if h.Verify("wrong-password-here", encoded) {
		t.Fatal("expected verification failure for wrong password")
	}
}

func TestHashRejectsShortPassword(t *testing.T) {
	h := newTestHasher(t)

	if _, err := h.Hash("short"); err == nil {
		t.Fatal("expected error for short password")
	}
}

func TestVerifyNeverErrorsOnMalformedInput(t *testing.T) {
	h := newTestHasher(t)

	cases := []string{
		"",
		"not-a-hash",
		"$argon2id$",
		"$argon2id$v=19$m=8192,t=1,p=1$!!badsalt!!$key",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5a2V5a2V5",
		"$md5$deadbeef",
		"$scrypt$N=3,r=8,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
	}
	for _, c := range cases {
		if h.Verify("whatever-password", c) {
			t.Fatalf("malformed hash %q must verify false", c)
		}
	}
}

func TestVerifyTamperedHashFails(t *testing.T) {
	h := newTestHasher(t)

	encoded, err := h.Hash("correct-horse-battery")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	last := "a"
	if strings.HasSuffix(encoded, "a") {
		last = "b"
	}
	tampered := encoded[:len(encoded)-1] + last
	if h.Verify("correct-horse-battery", tampered) {
		t.Fatal("tampered hash must verify false")
	}
}

func TestVerifyLegacyScrypt(t *testing.T) {
	h := newTestHasher(t)

	// Known-good legacy vector produced by the pre-migration scheme.
	legacy := legacyScryptHash(t, "legacy-password-1")

	if !h.Verify("legacy-password-1", legacy) {
		t.Fatal("expected legacy scrypt hash to verify")
	}
	if h.Verify("other-password-xx", legacy) {
		t.Fatal("expected wrong password to fail against legacy hash")
	}
}

func TestNeedsUpgrade(t *testing.T) {
	h := newTestHasher(t)

	legacy := legacyScryptHash(t, "legacy-password-1")
	if !h.NeedsUpgrade(legacy) {
		t.Fatal("legacy scheme must always need upgrade")
	}

	current, err := h.Hash("correct-horse-battery")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if h.NeedsUpgrade(current) {
		t.Fatal("current-parameter hash must not need upgrade")
	}

	stronger, err := NewHasher(Argon2Params{
		Memory:      16 * 1024,
		Time:        2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}, nil)
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}
	if !stronger.NeedsUpgrade(current) {
		t.Fatal("weaker-parameter hash must need upgrade")
	}
}

func TestHasherConfigFloor(t *testing.T) {
	bad := testParams()
	bad.SaltLength = 4
	if _, err := NewHasher(bad, nil); err == nil {
		t.Fatal("expected error for salt length below floor")
	}
}
