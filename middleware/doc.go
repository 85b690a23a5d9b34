// Package middleware exposes HTTP adapters over the engine's session and
// attestation checks.
//
// # Guards
//
//   - [RequireAttestation] — stateless attestation verification, no Redis call.
//   - [RequireSession] — full validation against the session store.
//
// Each guard reads the Authorization bearer token and injects the verified
// result into the request context for downstream handlers.
//
// This package translates HTTP semantics into engine calls; it makes no
// security decisions of its own.
package middleware
