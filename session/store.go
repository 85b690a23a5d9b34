package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport-level Redis failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrSessionNotFound is returned when a token resolves to no stored record.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionRevoked is returned when an operation requires an active session
// but the record has already been revoked.
var ErrSessionRevoked = errors.New("session revoked")

const velocityWindow = 24 * time.Hour

const (
	scriptStatusNotFound int64 = 0
	scriptStatusOK       int64 = 1
	scriptStatusRevoked  int64 = 2
	scriptStatusCorrupt  int64 = -1
)

// revokeScript marks a record revoked exactly once. It preserves the
// remaining TTL and removes the token from the user and fingerprint indexes
// so concurrent revokers agree on which call performed the transition.
//
// KEYS[1] session key. ARGV: token, revoked-at, reason, user index prefix,
// fingerprint index prefix.
const revokeScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return {0, 0}
end

local ok, rec = pcall(cjson.decode, data)
if not ok or type(rec) ~= "table" then
  return {-1, 0}
end

if rec.revoked then
  return {1, 0}
end

rec.revoked = true
rec.revoked_at = ARGV[2]
rec.revoke_reason = ARGV[3]

local ttl = redis.call("PTTL", KEYS[1])
local encoded = cjson.encode(rec)
if ttl > 0 then
  redis.call("SET", KEYS[1], encoded, "PX", ttl)
else
  redis.call("SET", KEYS[1], encoded)
end

if rec.user_id then
  redis.call("SREM", ARGV[4] .. rec.user_id, ARGV[1])
  if rec.device and rec.device.fingerprint and rec.device.fingerprint ~= "" then
    redis.call("SREM", ARGV[5] .. rec.user_id .. ":" .. rec.device.fingerprint, ARGV[1])
  end
end

return {1, 1}
`

var revokeLua = redis.NewScript(revokeScript)

// touchScript refreshes last_accessed_at without racing a concurrent revoke.
//
// KEYS[1] session key. ARGV[1] access timestamp.
const touchScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end

local ok, rec = pcall(cjson.decode, data)
if not ok or type(rec) ~= "table" then
  return -1
end

if rec.revoked then
  return 2
end

rec.last_accessed_at = ARGV[1]

local ttl = redis.call("PTTL", KEYS[1])
local encoded = cjson.encode(rec)
if ttl > 0 then
  redis.call("SET", KEYS[1], encoded, "PX", ttl)
else
  redis.call("SET", KEYS[1], encoded)
end

return 1
`

var touchLua = redis.NewScript(touchScript)

// Store is the Redis-backed session store.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a [Store] on the given Redis client. prefix namespaces
// the session keys; empty selects "ss".
func NewStore(redis redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "ss"
	}
	return &Store{redis: redis, prefix: prefix}
}

func (s *Store) key(token string) string {
	return s.prefix + ":" + token
}

func (s *Store) userKey(userID string) string {
	return "su:" + userID
}

func (s *Store) fingerprintKey(userID, fingerprint string) string {
	return "sf:" + userID + ":" + fingerprint
}

func (s *Store) velocityKey(userID string) string {
	return "sv:" + userID
}

// Save persists a new record with the given TTL and registers it in the
// user and fingerprint indexes.
//
//	Performance: 3-4 Redis commands in one transaction.
func (s *Store) Save(ctx context.Context, rec *Record, ttl time.Duration) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(rec.Token), data, ttl)
		pipe.SAdd(ctx, s.userKey(rec.UserID), rec.Token)
		if fp := rec.Fingerprint(); fp != "" {
			pipe.SAdd(ctx, s.fingerprintKey(rec.UserID, fp), rec.Token)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return s.recordCreation(ctx, rec.UserID)
}

// recordCreation bumps the rolling 24h creation counter. The window starts
// at the first creation after the previous window lapsed.
func (s *Store) recordCreation(ctx context.Context, userID string) error {
	key := s.velocityKey(userID)
	count, err := s.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count == 1 {
		if err := s.redis.Expire(ctx, key, velocityWindow).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return nil
}

// Get fetches a record by token. Revoked records are returned as-is;
// callers check Revoked.
//
//	Performance: 1 Redis GET.
func (s *Store) Get(ctx context.Context, token string) (*Record, error) {
	data, err := s.redis.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return Decode(data)
}

// Touch refreshes the record's last-access timestamp. Touching a revoked
// record returns [ErrSessionRevoked] and leaves it untouched.
//
//	Performance: 1 Lua EVALSHA.
func (s *Store) Touch(ctx context.Context, token string, at time.Time) error {
	status, err := touchLua.Run(
		ctx,
		s.redis,
		[]string{s.key(token)},
		at.UTC().Format(time.RFC3339Nano),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	switch status {
	case scriptStatusOK:
		return nil
	case scriptStatusNotFound:
		return ErrSessionNotFound
	case scriptStatusRevoked:
		return ErrSessionRevoked
	case scriptStatusCorrupt:
		return ErrSessionCorrupt
	default:
		return fmt.Errorf("%w: unknown touch script status %d", ErrRedisUnavailable, status)
	}
}

// Revoke transitions a record to revoked. The returned bool reports whether
// this call performed the transition; revoking an already-revoked record
// succeeds with false. A missing record returns [ErrSessionNotFound].
//
//	Performance: 1 Lua EVALSHA (atomic state transition).
func (s *Store) Revoke(ctx context.Context, token, reason string, at time.Time) (bool, error) {
	result, err := revokeLua.Run(
		ctx,
		s.redis,
		[]string{s.key(token)},
		token,
		at.UTC().Format(time.RFC3339Nano),
		reason,
		"su:",
		"sf:",
	).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	parts, ok := result.([]interface{})
	if !ok || len(parts) != 2 {
		return false, fmt.Errorf("%w: invalid revoke script response", ErrRedisUnavailable)
	}
	status, ok1 := parts[0].(int64)
	transitioned, ok2 := parts[1].(int64)
	if !ok1 || !ok2 {
		return false, fmt.Errorf("%w: invalid revoke script response", ErrRedisUnavailable)
	}

	switch status {
	case scriptStatusOK:
		return transitioned == 1, nil
	case scriptStatusNotFound:
		return false, ErrSessionNotFound
	case scriptStatusCorrupt:
		return false, ErrSessionCorrupt
	default:
		return false, fmt.Errorf("%w: unknown revoke script status %d", ErrRedisUnavailable, status)
	}
}

// ActiveTokens returns the indexed tokens for a user. The index can lag
// expiry; callers resolving records should tolerate missing tokens.
func (s *Store) ActiveTokens(ctx context.Context, userID string) ([]string, error) {
	tokens, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return tokens, nil
}

// ActiveRecords resolves the user's indexed tokens to live, non-revoked
// records. Tokens whose record expired out from under the index are dropped
// silently.
//
//	Performance: 1 SMEMBERS + 1 pipelined MGET.
func (s *Store) ActiveRecords(ctx context.Context, userID string) ([]*Record, error) {
	tokens, err := s.ActiveTokens(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.resolveActive(ctx, tokens)
}

// FingerprintTokens returns the indexed tokens for one user device.
func (s *Store) FingerprintTokens(ctx context.Context, userID, fingerprint string) ([]string, error) {
	tokens, err := s.redis.SMembers(ctx, s.fingerprintKey(userID, fingerprint)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return tokens, nil
}

// CountCreated24h returns how many sessions the user created in the rolling
// 24h velocity window.
func (s *Store) CountCreated24h(ctx context.Context, userID string) (int, error) {
	count, err := s.redis.Get(ctx, s.velocityKey(userID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

// ActiveSessionCount returns the size of the user's active index.
func (s *Store) ActiveSessionCount(ctx context.Context, userID string) (int, error) {
	count, err := s.redis.SCard(ctx, s.userKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(count), nil
}

// ScanRecords walks every stored session record in batches and invokes fn
// for each decodable one. Corrupt blobs are skipped. This is an O(n)
// maintenance operation for the sweeper, not a request-path API.
func (s *Store) ScanRecords(ctx context.Context, batch int64, fn func(*Record) error) error {
	if batch <= 0 {
		batch = 1000
	}
	pattern := s.prefix + ":*"

	var cursor uint64
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, pattern, batch).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}

		for _, key := range keys {
			data, getErr := s.redis.Get(ctx, key).Bytes()
			if getErr != nil {
				if errors.Is(getErr, redis.Nil) {
					continue
				}
				return fmt.Errorf("%w: %v", ErrRedisUnavailable, getErr)
			}
			rec, decErr := Decode(data)
			if decErr != nil {
				continue
			}
			if err := fn(rec); err != nil {
				return err
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

func (s *Store) resolveActive(ctx context.Context, tokens []string) ([]*Record, error) {
	if len(tokens) == 0 {
		return []*Record{}, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(tokens))
	for i, token := range tokens {
		cmds[i] = pipe.Get(ctx, s.key(token))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	records := make([]*Record, 0, len(tokens))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		rec, decErr := Decode(data)
		if decErr != nil || rec.Revoked {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}
