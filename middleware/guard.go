package middleware

import (
	"context"
	"net/http"
	"strings"

	sentinel "github.com/sentinelforge/sentinel"
	"github.com/sentinelforge/sentinel/attest"
)

type claimsContextKey struct{}
type validationContextKey struct{}

// ClaimsFromContext returns the attestation claims injected by
// [RequireAttestation].
func ClaimsFromContext(ctx context.Context) (*attest.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*attest.Claims)
	return claims, ok
}

// ValidationFromContext returns the validation result injected by
// [RequireSession].
func ValidationFromContext(ctx context.Context) (*sentinel.ValidationResult, bool) {
	res, ok := ctx.Value(validationContextKey{}).(*sentinel.ValidationResult)
	return res, ok
}

// RequireSession returns middleware that validates the bearer token against
// the session store. Invalid, revoked, and unknown sessions get 401.
func RequireSession(engine *sentinel.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			res, err := engine.ValidateSession(r.Context(), token)
			if err != nil || res == nil || !res.Valid {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := sentinel.WithSessionToken(r.Context(), token)
			ctx = context.WithValue(ctx, validationContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
