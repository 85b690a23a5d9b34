package flows

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sentinelforge/sentinel/session"
)

// DefaultRevokeWorkers bounds the fan-out of bulk revocations.
const DefaultRevokeWorkers = 8

// RevocationStore is the slice of the session store bulk revocation needs.
type RevocationStore interface {
	ActiveTokens(ctx context.Context, userID string) ([]string, error)
	FingerprintTokens(ctx context.Context, userID, fingerprint string) ([]string, error)
	Revoke(ctx context.Context, token, reason string, at time.Time) (bool, error)
}

// SweepStore is the slice of the session store the expiry sweep needs.
type SweepStore interface {
	ScanRecords(ctx context.Context, batch int64, fn func(*session.Record) error) error
	Revoke(ctx context.Context, token, reason string, at time.Time) (bool, error)
}

// LifecycleDeps configures bulk revocation and sweeping.
type LifecycleDeps struct {
	Now     func() time.Time
	Workers int
	// SweepBatch is the SCAN page size for sweeps. 0 uses the store default.
	SweepBatch int64
}

func (d LifecycleDeps) workers() int {
	if d.Workers <= 0 {
		return DefaultRevokeWorkers
	}
	return d.Workers
}

// BulkResult aggregates a fan-out revocation. Success is false only when the
// token list itself could not be read; per-token failures reduce Revoked but
// do not abort the rest.
type BulkResult struct {
	Success bool
	Revoked int
	Err     error
}

// RunRevokeAll revokes every active session for a user, optionally sparing
// the caller's own token. Revoked counts actual state transitions, so
// sessions another racer already revoked are not recounted.
func RunRevokeAll(
	ctx context.Context,
	store RevocationStore,
	userID, keepToken, reason string,
	deps LifecycleDeps,
) BulkResult {
	tokens, err := store.ActiveTokens(ctx, userID)
	if err != nil {
		return BulkResult{Success: false, Err: err}
	}

	if keepToken != "" {
		filtered := tokens[:0]
		for _, token := range tokens {
			if token != keepToken {
				filtered = append(filtered, token)
			}
		}
		tokens = filtered
	}

	revoked := fanOutRevoke(ctx, store, tokens, reason, deps)
	return BulkResult{Success: true, Revoked: revoked}
}

// RunRevokeByDevice revokes every session of the user bound to the given
// device fingerprint and reports how many revocations succeeded.
func RunRevokeByDevice(
	ctx context.Context,
	store RevocationStore,
	userID, fingerprint, reason string,
	deps LifecycleDeps,
) BulkResult {
	tokens, err := store.FingerprintTokens(ctx, userID, fingerprint)
	if err != nil {
		return BulkResult{Success: false, Err: err}
	}

	revoked := fanOutRevoke(ctx, store, tokens, reason, deps)
	return BulkResult{Success: true, Revoked: revoked}
}

// fanOutRevoke revokes tokens concurrently with a bounded worker pool and
// returns the number of state transitions performed. A failed sub-revocation
// never aborts the siblings.
func fanOutRevoke(
	ctx context.Context,
	store RevocationStore,
	tokens []string,
	reason string,
	deps LifecycleDeps,
) int {
	if len(tokens) == 0 {
		return 0
	}

	at := deps.Now()
	sem := make(chan struct{}, deps.workers())

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		revoked int
	)

	for _, token := range tokens {
		wg.Add(1)
		sem <- struct{}{}
		go func(token string) {
			defer wg.Done()
			defer func() { <-sem }()

			transitioned, err := store.Revoke(ctx, token, reason, at)
			if err != nil || !transitioned {
				return
			}
			mu.Lock()
			revoked++
			mu.Unlock()
		}(token)
	}
	wg.Wait()

	return revoked
}

// SweepResult aggregates one expiry sweep pass.
type SweepResult struct {
	Scanned int
	Revoked int
	Err     error
}

// RunSweep walks every stored record, validates it, and revokes the ones the
// validator says must go. Records that disappear mid-sweep are tolerated.
func RunSweep(
	ctx context.Context,
	store SweepStore,
	validate func(*session.Record) ValidateOutcome,
	deps LifecycleDeps,
) SweepResult {
	var result SweepResult
	at := deps.Now()

	result.Err = store.ScanRecords(ctx, deps.SweepBatch, func(rec *session.Record) error {
		result.Scanned++
		if rec.Revoked {
			return nil
		}

		outcome := validate(rec)
		if !outcome.ShouldRevoke {
			return nil
		}

		transitioned, err := store.Revoke(ctx, rec.Token, outcome.RevokeReason, at)
		if err != nil {
			if errors.Is(err, session.ErrSessionNotFound) {
				return nil
			}
			return err
		}
		if transitioned {
			result.Revoked++
		}
		return nil
	})

	return result
}
