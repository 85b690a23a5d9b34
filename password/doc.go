// Package password implements the credential policy engine: strength scoring
// with crack-time estimation, reuse prevention against a rolling window of
// prior hashes, expiry checks, and adaptive hashing.
//
// Two hash schemes are supported, distinguished by the prefix tag on the
// stored string: Argon2id (PHC "$argon2id$...") is the primary scheme for all
// new hashes, and scrypt ("$scrypt$...") is accepted for legacy verification
// only. Verification never returns an error to the caller; any parse or
// internal failure verifies as false so the stored format cannot be probed
// through error responses.
//
// All scoring functions are pure and safe for concurrent use.
package password
