// Package sentinel is a Redis-backed identity security core: password
// policy enforcement and hashing, device fingerprinting, contextual risk
// assessment, and risk-aware session lifecycle management.
//
// The entry point is the [Builder]:
//
//	engine, err := sentinel.New().
//		WithRedis(redisClient).
//		WithUserProvider(provider).
//		Build()
//	if err != nil {
//		// configuration problems surface here, not at request time
//	}
//	defer engine.Close()
//
// Request-scoped signals (client IP, user agent, the caller's own session
// token) travel on the context:
//
//	ctx = sentinel.WithClientIP(ctx, "203.0.113.9")
//	ctx = sentinel.WithUserAgent(ctx, r.UserAgent())
//
//	result, err := engine.CreateSession(ctx, sentinel.CreateSessionInput{
//		UserID:      "u-1",
//		Fingerprint: clientFingerprint,
//	})
//
// Sessions carry the risk score and security level they were created at;
// validation re-checks age, idle time, and risk on every read and revokes
// sessions that no longer qualify. Security checks fail secure: an
// internal error denies rather than allows. The one deliberate exception
// is password reuse checking, which fails open so an unreadable password
// history cannot lock a user out of rotating their credential.
package sentinel
