// Package flows implements the session security decision logic behind the
// root engine's public methods.
//
// # Design
//
// Each flow is a pure-ish function taking an explicit deps struct. The root
// engine builds the deps and delegates; flows never reach back into the
// root package. Store access goes through narrow interfaces declared here so
// tests can substitute fakes without Redis.
//
// # Error posture
//
// Validation flows fail secure: an internal panic or dependency failure
// resolves to "invalid, revoke" (session path) or "invalid, require MFA"
// (sign-in path), never to a silent pass.
package flows
