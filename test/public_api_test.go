//go:build integration
// +build integration

package test

import (
	"context"
	"testing"
	"time"

	sentinel "github.com/sentinelforge/sentinel"
)

// TestFullSessionLifecycle drives the exported API end to end: verify
// credentials, create a session, validate it, list it, revoke everything.
func TestFullSessionLifecycle(t *testing.T) {
	engine, _ := newIntegrationEngine(t, nil)
	ctx := sentinel.WithClientIP(context.Background(), "203.0.113.10")
	ctx = sentinel.WithUserAgent(ctx, "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0 Safari/537.36")

	match, err := engine.VerifyPassword(ctx, seedUserID, seedPassword)
	if err != nil || !match {
		t.Fatalf("VerifyPassword = (%v, %v), want (true, nil)", match, err)
	}

	created, err := engine.CreateSession(ctx, sentinel.CreateSessionInput{
		UserID:      seedUserID,
		Fingerprint: "fp-integration",
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if len(created.Token) != 32 {
		t.Fatalf("token %q has unexpected length", created.Token)
	}

	validated, err := engine.ValidateSession(ctx, created.Token)
	if err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}
	if !validated.Valid {
		t.Fatalf("fresh session invalid: %+v", validated)
	}
	if validated.Session.UserID != seedUserID {
		t.Fatalf("session user = %q", validated.Session.UserID)
	}

	listCtx := sentinel.WithSessionToken(ctx, created.Token)
	sessions, err := engine.ListSessions(listCtx, seedUserID)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 1 || !sessions[0].Current {
		t.Fatalf("sessions = %+v, want one current", sessions)
	}

	summary, err := engine.RevokeAllSessions(ctx, seedUserID, "integration cleanup")
	if err != nil {
		t.Fatalf("RevokeAllSessions: %v", err)
	}
	if summary.Revoked != 1 {
		t.Fatalf("revoked = %d, want 1", summary.Revoked)
	}

	revalidated, err := engine.ValidateSession(ctx, created.Token)
	if err != nil {
		t.Fatalf("post-revoke validate: %v", err)
	}
	if revalidated.Valid {
		t.Fatal("revoked session still validates")
	}
}

// TestWrongPasswordDoesNotCreateState checks that a failed verification
// leaves no session behind and keeps the account usable.
func TestWrongPasswordDoesNotCreateState(t *testing.T) {
	engine, _ := newIntegrationEngine(t, nil)
	ctx := context.Background()

	match, err := engine.VerifyPassword(ctx, seedUserID, "not-the-password")
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if match {
		t.Fatal("wrong password verified")
	}

	sessions, err := engine.ListSessions(ctx, seedUserID)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("sessions = %+v, want none", sessions)
	}

	match, err = engine.VerifyPassword(ctx, seedUserID, seedPassword)
	if err != nil || !match {
		t.Fatalf("recovery VerifyPassword = (%v, %v)", match, err)
	}
}

// TestSweepRemovesAgedSessions forces a tiny max session age and checks the
// sweeper revokes what validation would.
func TestSweepRemovesAgedSessions(t *testing.T) {
	engine, _ := newIntegrationEngine(t, func(cfg *sentinel.Config) {
		cfg.Session.MaxSessionAge = 50 * time.Millisecond
	})
	ctx := context.Background()

	created, err := engine.CreateSession(ctx, sentinel.CreateSessionInput{UserID: seedUserID})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	swept, err := engine.SweepExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("SweepExpiredSessions: %v", err)
	}
	if swept.Revoked != 1 {
		t.Fatalf("swept.Revoked = %d, want 1", swept.Revoked)
	}

	revalidated, err := engine.ValidateSession(ctx, created.Token)
	if err != nil {
		t.Fatalf("post-sweep validate: %v", err)
	}
	if revalidated.Valid {
		t.Fatal("swept session still validates")
	}
}
