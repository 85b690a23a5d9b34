package middleware

import (
	"context"
	"net/http"

	"github.com/sentinelforge/sentinel/attest"
	"github.com/sentinelforge/sentinel/risk"
)

// RequireAttestation returns middleware that verifies the bearer attestation
// without touching the session store. Requests whose attested risk level is
// at or above ceiling get 403; pass an empty ceiling to skip that check.
func RequireAttestation(manager *attest.Manager, ceiling risk.Level) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := manager.Parse(token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if ceiling != "" && claims.Level.AtLeast(ceiling) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
