package password

import (
	"crypto/rand"
	"errors"
	"io"
	"strings"
)

const minPasswordBytes = 8

// Hasher produces and verifies stored credential hashes. New hashes always
// use Argon2id; verification dispatches on the stored prefix tag so legacy
// scrypt hashes keep working.
//
// Hasher instances are configured at startup and safe for concurrent use.
type Hasher struct {
	params Argon2Params
	rng    io.Reader
}

// NewHasher creates a Hasher with the given Argon2id parameters. rng may be
// nil, in which case crypto/rand is used.
func NewHasher(params Argon2Params, rng io.Reader) (*Hasher, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.Reader
	}
	return &Hasher{params: params, rng: rng}, nil
}

// Hash derives a stored hash for the password. Password bytes are used
// exactly as provided; no Unicode normalization is applied.
func (h *Hasher) Hash(password string) (string, error) {
	if len(password) < minPasswordBytes {
		return "", errors.New("password must be at least 8 bytes")
	}
	return argon2Hash(password, h.params, h.rng)
}

// Verify reports whether password matches the stored hash. It never returns
// an error: malformed input, unknown schemes, and internal failures all
// verify as false so callers cannot be used as a format or error oracle.
func (h *Hasher) Verify(password, encoded string) bool {
	ok, err := h.verify(password, encoded)
	if err != nil {
		return false
	}
	return ok
}

// NeedsUpgrade reports whether the stored hash should be re-derived on next
// successful authentication: legacy schemes always, Argon2id when produced
// with weaker parameters than currently configured.
func (h *Hasher) NeedsUpgrade(encoded string) bool {
	switch schemeOf(encoded) {
	case argon2Tag:
		upgrade, err := argon2NeedsUpgrade(encoded, h.params)
		return err == nil && upgrade
	case scryptTag:
		return true
	default:
		return false
	}
}

func (h *Hasher) verify(password, encoded string) (bool, error) {
	switch schemeOf(encoded) {
	case argon2Tag:
		return argon2Verify(password, encoded)
	case scryptTag:
		return scryptVerify(password, encoded)
	default:
		return false, errors.New("unknown hash scheme")
	}
}

func schemeOf(encoded string) string {
	if !strings.HasPrefix(encoded, "$") {
		return ""
	}
	rest := encoded[1:]
	idx := strings.IndexByte(rest, '$')
	if idx <= 0 {
		return ""
	}
	return rest[:idx]
}
