package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/sentinelforge/sentinel/device"
	"github.com/sentinelforge/sentinel/risk"
)

func newStoreTest(t *testing.T) (*Store, *redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewStore(rdb, "ss"), rdb, mr
}

func testRecord(token string) *Record {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &Record{
		Token:          token,
		UserID:         "u-1",
		CreatedAt:      now,
		LastAccessedAt: now,
		Device: device.Descriptor{
			Type:        device.TypeDesktop,
			OS:          "Linux",
			Browser:     "Firefox",
			Fingerprint: "fp-alpha",
		},
		RiskScore:     15,
		SecurityLevel: risk.LevelNormal,
		IPAddress:     "203.0.113.10",
	}
}

func TestSaveGetRoundTrip(t *testing.T) {
	store, _, _ := newStoreTest(t)
	ctx := context.Background()

	rec := testRecord("tok-1")
	if err := store.Save(ctx, rec, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Get(ctx, "tok-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.UserID != rec.UserID || got.Fingerprint() != "fp-alpha" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Revoked {
		t.Fatal("fresh record must not be revoked")
	}
}

func TestGetMissingSession(t *testing.T) {
	store, _, _ := newStoreTest(t)

	_, err := store.Get(context.Background(), "absent")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected not-found sentinel, got %v", err)
	}
}

func TestRevokeIdempotentSingleTransition(t *testing.T) {
	store, _, _ := newStoreTest(t)
	ctx := context.Background()

	rec := testRecord("tok-1")
	if err := store.Save(ctx, rec, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}

	transitioned, err := store.Revoke(ctx, "tok-1", "manual", time.Now())
	if err != nil {
		t.Fatalf("first revoke: %v", err)
	}
	if !transitioned {
		t.Fatal("first revoke must perform the transition")
	}

	transitioned, err = store.Revoke(ctx, "tok-1", "manual", time.Now())
	if err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	if transitioned {
		t.Fatal("second revoke must be a success no-op")
	}

	got, err := store.Get(ctx, "tok-1")
	if err != nil {
		t.Fatalf("get after revoke: %v", err)
	}
	if !got.Revoked || got.RevokeReason != "manual" || got.RevokedAt == nil {
		t.Fatalf("revocation state not persisted: %+v", got)
	}
}

func TestRevokeMissingSession(t *testing.T) {
	store, _, _ := newStoreTest(t)

	_, err := store.Revoke(context.Background(), "absent", "manual", time.Now())
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected not-found sentinel, got %v", err)
	}
}

func TestRevokeCorruptBlob(t *testing.T) {
	store, rdb, _ := newStoreTest(t)
	ctx := context.Background()

	if err := rdb.Set(ctx, store.key("tok-bad"), "not json", time.Hour).Err(); err != nil {
		t.Fatalf("seed corrupt blob: %v", err)
	}

	_, err := store.Revoke(ctx, "tok-bad", "manual", time.Now())
	if !errors.Is(err, ErrSessionCorrupt) {
		t.Fatalf("expected corrupt sentinel, got %v", err)
	}
}

func TestRevokeClearsIndexes(t *testing.T) {
	store, rdb, _ := newStoreTest(t)
	ctx := context.Background()

	rec := testRecord("tok-1")
	if err := store.Save(ctx, rec, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := store.Revoke(ctx, "tok-1", "manual", time.Now()); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	members, err := rdb.SMembers(ctx, store.userKey("u-1")).Result()
	if err != nil {
		t.Fatalf("smembers user index: %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("user index still holds %v", members)
	}

	fpMembers, err := rdb.SMembers(ctx, store.fingerprintKey("u-1", "fp-alpha")).Result()
	if err != nil {
		t.Fatalf("smembers fingerprint index: %v", err)
	}
	if len(fpMembers) != 0 {
		t.Fatalf("fingerprint index still holds %v", fpMembers)
	}
}

func TestRevokePreservesTTL(t *testing.T) {
	store, rdb, mr := newStoreTest(t)
	ctx := context.Background()

	if err := store.Save(ctx, testRecord("tok-1"), time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	mr.FastForward(30 * time.Minute)

	if _, err := store.Revoke(ctx, "tok-1", "manual", time.Now()); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	ttl, err := rdb.PTTL(ctx, store.key("tok-1")).Result()
	if err != nil {
		t.Fatalf("pttl: %v", err)
	}
	if ttl <= 0 || ttl > 31*time.Minute {
		t.Fatalf("revoke changed the TTL: %v", ttl)
	}
}

func TestTouchUpdatesLastAccess(t *testing.T) {
	store, _, _ := newStoreTest(t)
	ctx := context.Background()

	rec := testRecord("tok-1")
	if err := store.Save(ctx, rec, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}

	at := rec.LastAccessedAt.Add(15 * time.Minute)
	if err := store.Touch(ctx, "tok-1", at); err != nil {
		t.Fatalf("touch: %v", err)
	}

	got, err := store.Get(ctx, "tok-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.LastAccessedAt.Equal(at) {
		t.Fatalf("last access = %v, want %v", got.LastAccessedAt, at)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Fatalf("touch must not move creation time")
	}
}

func TestTouchRevokedSession(t *testing.T) {
	store, _, _ := newStoreTest(t)
	ctx := context.Background()

	if err := store.Save(ctx, testRecord("tok-1"), time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.Revoke(ctx, "tok-1", "manual", time.Now()); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	err := store.Touch(ctx, "tok-1", time.Now())
	if !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("expected revoked sentinel, got %v", err)
	}
}

func TestActiveRecordsFiltersRevokedAndExpired(t *testing.T) {
	store, _, mr := newStoreTest(t)
	ctx := context.Background()

	live := testRecord("tok-live")
	short := testRecord("tok-short")
	gone := testRecord("tok-gone")

	if err := store.Save(ctx, live, time.Hour); err != nil {
		t.Fatalf("save live: %v", err)
	}
	if err := store.Save(ctx, short, time.Minute); err != nil {
		t.Fatalf("save short: %v", err)
	}
	if err := store.Save(ctx, gone, time.Hour); err != nil {
		t.Fatalf("save gone: %v", err)
	}
	if _, err := store.Revoke(ctx, "tok-gone", "manual", time.Now()); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	mr.FastForward(5 * time.Minute)

	records, err := store.ActiveRecords(ctx, "u-1")
	if err != nil {
		t.Fatalf("active records: %v", err)
	}
	if len(records) != 1 || records[0].Token != "tok-live" {
		t.Fatalf("unexpected active set: %+v", records)
	}
}

func TestFingerprintTokens(t *testing.T) {
	store, _, _ := newStoreTest(t)
	ctx := context.Background()

	a := testRecord("tok-a")
	b := testRecord("tok-b")
	b.Device.Fingerprint = "fp-beta"

	if err := store.Save(ctx, a, time.Hour); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := store.Save(ctx, b, time.Hour); err != nil {
		t.Fatalf("save b: %v", err)
	}

	tokens, err := store.FingerprintTokens(ctx, "u-1", "fp-alpha")
	if err != nil {
		t.Fatalf("fingerprint tokens: %v", err)
	}
	if len(tokens) != 1 || tokens[0] != "tok-a" {
		t.Fatalf("unexpected fingerprint set: %v", tokens)
	}
}

func TestCountCreated24hWindow(t *testing.T) {
	store, _, mr := newStoreTest(t)
	ctx := context.Background()

	for _, token := range []string{"tok-1", "tok-2", "tok-3"} {
		if err := store.Save(ctx, testRecord(token), time.Hour); err != nil {
			t.Fatalf("save %s: %v", token, err)
		}
	}

	count, err := store.CountCreated24h(ctx, "u-1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}

	mr.FastForward(25 * time.Hour)

	count, err = store.CountCreated24h(ctx, "u-1")
	if err != nil {
		t.Fatalf("count after window: %v", err)
	}
	if count != 0 {
		t.Fatalf("count after window = %d, want 0", count)
	}
}

func TestScanRecordsSkipsCorrupt(t *testing.T) {
	store, rdb, _ := newStoreTest(t)
	ctx := context.Background()

	if err := store.Save(ctx, testRecord("tok-1"), time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := rdb.Set(ctx, store.key("tok-bad"), "not json", time.Hour).Err(); err != nil {
		t.Fatalf("seed corrupt blob: %v", err)
	}

	var seen []string
	err := store.ScanRecords(ctx, 10, func(rec *Record) error {
		seen = append(seen, rec.Token)
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(seen) != 1 || seen[0] != "tok-1" {
		t.Fatalf("unexpected scan result: %v", seen)
	}
}
