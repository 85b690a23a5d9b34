// Package session persists session records in Redis and maintains the
// secondary indexes the lifecycle operations need: a per-user set of active
// tokens, a per-user-per-fingerprint set for device-scoped revocation, and a
// rolling 24h creation counter for velocity scoring.
//
// Revocation is terminal. A revoked record stays in Redis for its remaining
// TTL (so repeat revocations are observable no-ops) but leaves every active
// index. State transitions run as Lua scripts so concurrent revokers cannot
// double-count a transition.
package session
