package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	sentinel "github.com/sentinelforge/sentinel"
	"github.com/sentinelforge/sentinel/attest"
	"github.com/sentinelforge/sentinel/risk"
)

type staticProvider struct {
	user sentinel.UserRecord
}

func (p *staticProvider) GetUserByID(_ context.Context, userID string) (*sentinel.UserRecord, error) {
	if userID != p.user.UserID {
		return nil, sentinel.ErrUserNotFound
	}
	out := p.user
	return &out, nil
}

func (p *staticProvider) UpdatePasswordHash(context.Context, string, string, time.Time) error {
	return nil
}

func (p *staticProvider) UpdateLastLogin(context.Context, string, time.Time) error {
	return nil
}

func newTestEngine(t *testing.T) *sentinel.Engine {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	engine, err := sentinel.New().
		WithRedis(rdb).
		WithUserProvider(&staticProvider{user: sentinel.UserRecord{
			UserID: "u-1",
			Email:  "alice@example.com",
			Active: true,
		}}).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine
}

func okHandler(hit *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hit = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireSessionAcceptsValidToken(t *testing.T) {
	engine := newTestEngine(t)

	res, err := engine.CreateSession(context.Background(), sentinel.CreateSessionInput{UserID: "u-1"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	var hit bool
	var seen *sentinel.ValidationResult
	handler := RequireSession(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
		seen, _ = ValidationFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+res.Token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || !hit {
		t.Fatalf("status = %d, hit = %v", rec.Code, hit)
	}
	if seen == nil || seen.Session == nil || seen.Session.UserID != "u-1" {
		t.Fatalf("validation result not injected: %+v", seen)
	}
}

func TestRequireSessionRejectsMissingAndBadTokens(t *testing.T) {
	engine := newTestEngine(t)

	var hit bool
	handler := RequireSession(engine)(okHandler(&hit))

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc"},
		{"empty bearer", "Bearer "},
		{"unknown token", "Bearer AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
		})
	}
	if hit {
		t.Fatal("handler ran for rejected request")
	}
}

func TestRequireSessionRejectsRevokedToken(t *testing.T) {
	engine := newTestEngine(t)

	res, err := engine.CreateSession(context.Background(), sentinel.CreateSessionInput{UserID: "u-1"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := engine.RevokeSession(context.Background(), res.Token, "test"); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	var hit bool
	handler := RequireSession(engine)(okHandler(&hit))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+res.Token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized || hit {
		t.Fatalf("status = %d, hit = %v", rec.Code, hit)
	}
}

func newAttestManager(t *testing.T) *attest.Manager {
	t.Helper()

	manager, err := attest.NewManager(attest.Config{
		TTL:           5 * time.Minute,
		SigningMethod: attest.MethodHS256,
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
		Issuer:        "sentinel-test",
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return manager
}

func TestRequireAttestationAcceptsSignedToken(t *testing.T) {
	manager := newAttestManager(t)

	token, err := manager.Issue("u-1", "sess-1", risk.LevelNormal, 10)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var seen *attest.Claims
	handler := RequireAttestation(manager, risk.LevelHighRisk)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if seen == nil || seen.UserID != "u-1" || seen.SessionToken != "sess-1" {
		t.Fatalf("claims not injected: %+v", seen)
	}
}

func TestRequireAttestationEnforcesRiskCeiling(t *testing.T) {
	manager := newAttestManager(t)

	token, err := manager.Issue("u-1", "sess-1", risk.LevelCritical, 90)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var hit bool
	handler := RequireAttestation(manager, risk.LevelHighRisk)(okHandler(&hit))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden || hit {
		t.Fatalf("status = %d, hit = %v", rec.Code, hit)
	}
}

func TestRequireAttestationRejectsGarbage(t *testing.T) {
	manager := newAttestManager(t)

	var hit bool
	handler := RequireAttestation(manager, "")(okHandler(&hit))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized || hit {
		t.Fatalf("status = %d, hit = %v", rec.Code, hit)
	}
}
