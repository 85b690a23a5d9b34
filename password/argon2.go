package password

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Tag      = "argon2id"
	minMemoryKB    = uint32(8 * 1024)
	minTimeCost    = uint32(1)
	minParallelism = uint8(1)
	minSaltLength  = uint32(16)
	minKeyLength   = uint32(16)
)

// Argon2Params are the Argon2id cost parameters used for new hashes.
type Argon2Params struct {
	Memory      uint32 // KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params returns interactive-login cost parameters.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Validate rejects parameters below the accepted floor.
func (p Argon2Params) Validate() error {
	if p.Memory < minMemoryKB {
		return errors.New("argon2: memory must be >= 8192 KB")
	}
	if p.Time < minTimeCost {
		return errors.New("argon2: time cost must be >= 1")
	}
	if p.Parallelism < minParallelism {
		return errors.New("argon2: parallelism must be >= 1")
	}
	if p.SaltLength < minSaltLength {
		return errors.New("argon2: salt length must be >= 16")
	}
	if p.KeyLength < minKeyLength {
		return errors.New("argon2: key length must be >= 16")
	}
	return nil
}

// argon2Hash derives a PHC-formatted hash string:
//
//	$argon2id$v=19$m=65536,t=3,p=2$<salt-b64>$<key-b64>
func argon2Hash(password string, params Argon2Params, rng io.Reader) (string, error) {
	salt := make([]byte, params.SaltLength)
	if _, err := io.ReadFull(rng, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Parallelism, params.KeyLength)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Tag,
		argon2.Version,
		params.Memory,
		params.Time,
		params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// argon2Verify recomputes the key with the parameters embedded in the stored
// string and compares in constant time.
func argon2Verify(password, encoded string) (bool, error) {
	parsed, err := parseArgon2PHC(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(password),
		parsed.salt,
		parsed.time,
		parsed.memory,
		parsed.parallelism,
		uint32(len(parsed.key)),
	)

	return subtle.ConstantTimeCompare(computed, parsed.key) == 1, nil
}

type argon2Encoded struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func parseArgon2PHC(encoded string) (*argon2Encoded, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, errors.New("argon2: invalid PHC format")
	}
	if parts[1] != argon2Tag {
		return nil, errors.New("argon2: unsupported algorithm")
	}

	if !strings.HasPrefix(parts[2], "v=") {
		return nil, errors.New("argon2: missing version")
	}
	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || version != argon2.Version {
		return nil, errors.New("argon2: unsupported version")
	}

	out := &argon2Encoded{}
	var seen int
	for _, pair := range strings.Split(parts[3], ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, errors.New("argon2: invalid parameter entry")
		}
		switch kv[0] {
		case "m":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil || v < uint64(minMemoryKB) {
				return nil, errors.New("argon2: invalid memory parameter")
			}
			out.memory = uint32(v)
			seen++
		case "t":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil || v < uint64(minTimeCost) {
				return nil, errors.New("argon2: invalid time parameter")
			}
			out.time = uint32(v)
			seen++
		case "p":
			v, err := strconv.ParseUint(kv[1], 10, 8)
			if err != nil || v < uint64(minParallelism) {
				return nil, errors.New("argon2: invalid parallelism parameter")
			}
			out.parallelism = uint8(v)
			seen++
		default:
			return nil, errors.New("argon2: unsupported parameter")
		}
	}
	if seen != 3 {
		return nil, errors.New("argon2: missing parameters")
	}

	out.salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(out.salt) < int(minSaltLength) {
		return nil, errors.New("argon2: invalid salt")
	}
	out.key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(out.key) == 0 {
		return nil, errors.New("argon2: invalid key")
	}

	return out, nil
}

// argon2NeedsUpgrade reports whether a stored hash was produced with weaker
// parameters than currently configured.
func argon2NeedsUpgrade(encoded string, params Argon2Params) (bool, error) {
	parsed, err := parseArgon2PHC(encoded)
	if err != nil {
		return false, err
	}
	if params.Memory > parsed.memory || params.Time > parsed.time || params.Parallelism > parsed.parallelism {
		return true, nil
	}
	if uint32(len(parsed.key)) != params.KeyLength {
		return true, nil
	}
	return false, nil
}
