// Package limiters provides Redis-backed failure tracking.
//
// # Limiters
//
//   - [LockoutLimiter] — consecutive failed-authentication counter per user,
//     feeding both risk scoring and threshold lockout.
//
// # Architecture boundaries
//
// The limiter owns its Redis key namespace and error type. Policy thresholds
// come from a Config struct supplied at construction time.
//
// # What this package must NOT do
//
//   - Make policy decisions beyond counting — flow functions decide
//     consequences.
//   - Import any sibling internal package.
package limiters
