package sentinel

import "context"

type clientIPContextKey struct{}
type userAgentContextKey struct{}
type sessionTokenContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The Engine uses it
// for risk assessment, geolocation, and audit logging.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithUserAgent attaches the HTTP User-Agent string to ctx. The Engine
// classifies it into a device descriptor during risk assessment and
// session creation.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, userAgentContextKey{}, userAgent)
}

// WithSessionToken attaches the caller's own session token to ctx. Bulk
// revocation spares it, and ListSessions marks it as the current session.
func WithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, sessionTokenContextKey{}, token)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func userAgentFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	userAgent, _ := ctx.Value(userAgentContextKey{}).(string)
	return userAgent
}

func sessionTokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	token, _ := ctx.Value(sessionTokenContextKey{}).(string)
	return token
}
