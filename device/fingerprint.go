package device

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sort"
	"strconv"
	"time"
)

// FingerprintLen is the length in hex characters of a derived fingerprint.
const FingerprintLen = 32

// Fingerprinter derives opaque device fingerprints from client signatures.
// The zero value is not usable; construct with NewFingerprinter.
type Fingerprinter struct {
	rng io.Reader
	now func() time.Time
}

// NewFingerprinter returns a Fingerprinter reading salt bytes from rng.
// A nil rng selects crypto/rand.
func NewFingerprinter(rng io.Reader) *Fingerprinter {
	if rng == nil {
		rng = rand.Reader
	}
	return &Fingerprinter{rng: rng, now: time.Now}
}

// Derive computes a fingerprint over the signature, the current timestamp,
// a random salt, and any extra attributes (sorted by key so attribute order
// never changes the result). Derive never fails: if salt generation errors,
// it falls back to a deterministic hash over the signature and timestamp.
func (f *Fingerprinter) Derive(signature string, extra map[string]string) string {
	ts := f.now().UnixNano()

	salt := make([]byte, 16)
	if _, err := io.ReadFull(f.rng, salt); err != nil {
		return fallbackFingerprint(signature, ts)
	}

	h := sha256.New()
	h.Write([]byte(signature))
	h.Write([]byte(strconv.FormatInt(ts, 10)))
	h.Write(salt)
	writeSortedAttrs(h, extra)

	return hex.EncodeToString(h.Sum(nil))[:FingerprintLen]
}

func fallbackFingerprint(signature string, ts int64) string {
	h := sha256.New()
	h.Write([]byte(signature))
	h.Write([]byte(strconv.FormatInt(ts, 10)))
	return hex.EncodeToString(h.Sum(nil))[:FingerprintLen]
}

func writeSortedAttrs(h io.Writer, extra map[string]string) {
	if len(extra) == 0 {
		return
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(extra[k]))
		h.Write([]byte{0})
	}
}
