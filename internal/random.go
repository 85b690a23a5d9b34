// Package internal contains helper utilities that are intentionally private
// to the module, currently secure session-token generation.
//
// # Sub-packages
//
//   - audit — async event dispatch (Dispatcher + Sink implementations)
//   - flows — decision functions behind every Engine operation
//   - limiters — Redis-backed failed-authentication tracking
//
// # What this package must NOT do
//
//   - Export types that appear in the public API.
//   - Be imported by any package outside this module.
package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// SessionToken is the raw entropy behind one session token.
type SessionToken [24]byte

// NewSessionToken draws a fresh random token.
func NewSessionToken() (SessionToken, error) {
	var tok SessionToken
	_, err := rand.Read(tok[:])
	return tok, err
}

// String renders the token in its wire form: base64url, no padding.
func (t SessionToken) String() string {
	return base64.RawURLEncoding.EncodeToString(t[:])
}

// ParseSessionToken validates the wire form of a token.
func ParseSessionToken(token string) (SessionToken, error) {
	var tok SessionToken

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return tok, err
	}
	if len(raw) != len(tok) {
		return tok, errors.New("invalid session token size")
	}

	copy(tok[:], raw)
	return tok, nil
}
