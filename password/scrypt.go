package password

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// Legacy scheme. Stored hashes predating the Argon2id migration carry the
// "$scrypt$" prefix tag:
//
//	$scrypt$N=32768,r=8,p=1$<salt-b64>$<key-b64>
//
// New hashes are never produced with this scheme; it exists only so legacy
// credentials keep verifying until their next rotation.
const scryptTag = "scrypt"

const (
	scryptMinN       = 1 << 14
	scryptMaxN       = 1 << 22
	scryptMinSaltLen = 16
)

func scryptVerify(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 5 || parts[0] != "" || parts[1] != scryptTag {
		return false, errors.New("scrypt: invalid format")
	}

	n, r, p, err := parseScryptParams(parts[2])
	if err != nil {
		return false, err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil || len(salt) < scryptMinSaltLen {
		return false, errors.New("scrypt: invalid salt")
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(key) == 0 {
		return false, errors.New("scrypt: invalid key")
	}

	computed, err := scrypt.Key([]byte(password), salt, n, r, p, len(key))
	if err != nil {
		return false, err
	}

	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

func parseScryptParams(part string) (n, r, p int, err error) {
	var seen int
	for _, pair := range strings.Split(part, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return 0, 0, 0, errors.New("scrypt: invalid parameter entry")
		}
		v, convErr := strconv.Atoi(kv[1])
		if convErr != nil || v <= 0 {
			return 0, 0, 0, errors.New("scrypt: invalid parameter value")
		}
		switch kv[0] {
		case "N":
			n = v
			seen++
		case "r":
			r = v
			seen++
		case "p":
			p = v
			seen++
		default:
			return 0, 0, 0, errors.New("scrypt: unsupported parameter")
		}
	}
	if seen != 3 {
		return 0, 0, 0, errors.New("scrypt: missing parameters")
	}
	if n < scryptMinN || n > scryptMaxN || n&(n-1) != 0 {
		return 0, 0, 0, errors.New("scrypt: N out of range")
	}
	return n, r, p, nil
}
