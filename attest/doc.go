// Package attest issues and verifies signed session attestations: short
// JWTs binding a session token to the user, risk score, and security level
// the session was validated at. Surrounding services verify attestations
// instead of re-running the full validation pipeline on every hop.
package attest
