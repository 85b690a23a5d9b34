package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockoutConfig holds configuration for the failed-authentication tracker.
type LockoutConfig struct {
	Enabled   bool
	Threshold int
	Window    time.Duration // 0 = counter persists until reset
}

// ErrLockoutUnavailable indicates the lockout backend is unreachable.
var ErrLockoutUnavailable = errors.New("lockout backend unavailable")

// LockoutLimiter tracks consecutive authentication failures per user. The
// count feeds risk scoring and triggers account lockout at the threshold.
type LockoutLimiter struct {
	redis  redis.UniversalClient
	config LockoutConfig
}

// NewLockoutLimiter creates a lockout limiter on the given Redis client.
func NewLockoutLimiter(redisClient redis.UniversalClient, cfg LockoutConfig) *LockoutLimiter {
	return &LockoutLimiter{redis: redisClient, config: cfg}
}

func (l *LockoutLimiter) key(userID string) string {
	return "slo:" + userID
}

// RecordFailure increments the failure counter for a user. Returns true when
// the threshold has been reached and the caller should lock the account.
func (l *LockoutLimiter) RecordFailure(ctx context.Context, userID string) (bool, error) {
	if !l.config.Enabled || userID == "" {
		return false, nil
	}

	count, err := l.redis.Incr(ctx, l.key(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}

	if count == 1 && l.config.Window > 0 {
		// TTL on the first failure makes the counter a rolling window.
		if err := l.redis.Expire(ctx, l.key(userID), l.config.Window).Err(); err != nil {
			return false, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
		}
	}

	return count >= int64(l.config.Threshold), nil
}

// Reset clears the failure counter, typically after a successful sign-in or
// a manual unlock.
func (l *LockoutLimiter) Reset(ctx context.Context, userID string) error {
	if !l.config.Enabled || userID == "" {
		return nil
	}

	if err := l.redis.Del(ctx, l.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	return nil
}

// FailureCount returns the current consecutive-failure count for a user.
func (l *LockoutLimiter) FailureCount(ctx context.Context, userID string) (int, error) {
	if !l.config.Enabled || userID == "" {
		return 0, nil
	}

	count, err := l.redis.Get(ctx, l.key(userID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}
