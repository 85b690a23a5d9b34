//go:build integration
// +build integration

package test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	sentinel "github.com/sentinelforge/sentinel"
	"github.com/sentinelforge/sentinel/password"
)

const (
	seedUserID   = "user-1"
	seedEmail    = "alice@example.com"
	seedPassword = "Correct#Horse7Battery"
)

type memoryProvider struct {
	mu    sync.Mutex
	users map[string]sentinel.UserRecord
}

func newMemoryProvider() *memoryProvider {
	return &memoryProvider{users: map[string]sentinel.UserRecord{}}
}

func (p *memoryProvider) put(rec sentinel.UserRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[rec.UserID] = rec
}

func (p *memoryProvider) GetUserByID(_ context.Context, userID string) (*sentinel.UserRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec, ok := p.users[userID]
	if !ok {
		return nil, sentinel.ErrUserNotFound
	}
	out := rec
	return &out, nil
}

func (p *memoryProvider) UpdatePasswordHash(_ context.Context, userID, hash string, changedAt time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec, ok := p.users[userID]
	if !ok {
		return sentinel.ErrUserNotFound
	}
	if rec.PasswordHash != "" {
		rec.PriorPasswordHashes = append([]string{rec.PasswordHash}, rec.PriorPasswordHashes...)
	}
	rec.PasswordHash = hash
	rec.PasswordChangedAt = changedAt
	p.users[userID] = rec
	return nil
}

func (p *memoryProvider) UpdateLastLogin(context.Context, string, time.Time) error {
	return nil
}

// newIntegrationEngine builds a full engine on miniredis and seeds one
// active user with a real argon2 hash of seedPassword.
func newIntegrationEngine(t *testing.T, mutateCfg func(*sentinel.Config)) (*sentinel.Engine, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := sentinel.DefaultConfig()
	if mutateCfg != nil {
		mutateCfg(&cfg)
	}

	provider := newMemoryProvider()

	engine, err := sentinel.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserProvider(provider).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)

	provider.put(sentinel.UserRecord{
		UserID:            seedUserID,
		Email:             seedEmail,
		Name:              "Alice Chen",
		Active:            true,
		PasswordHash:      seedHash(t),
		PasswordChangedAt: time.Now().UTC(),
	})

	return engine, rdb
}

func seedHash(t *testing.T) string {
	t.Helper()

	hasher, err := password.NewHasher(password.DefaultArgon2Params(), nil)
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	hash, err := hasher.Hash(seedPassword)
	if err != nil {
		t.Fatalf("hash seed password: %v", err)
	}
	return hash
}
