package ratelimit

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

// hitScript is the fixed-window check-then-increment.  A full window is
// never incremented, so the counter stays at the limit and its TTL is the
// time left until reset.
var hitScript = redis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window_ms = tonumber(ARGV[2])

	local current = tonumber(redis.call('GET', key) or '0')
	if current >= limit then
		local ttl = redis.call('PTTL', key)
		if ttl < 0 then
			redis.call('PEXPIRE', key, window_ms)
			ttl = window_ms
		end
		return { 0, current, ttl }
	end

	current = redis.call('INCR', key)
	if current == 1 then
		redis.call('PEXPIRE', key, window_ms)
	end
	local ttl = redis.call('PTTL', key)
	if ttl < 0 then ttl = window_ms end
	return { 1, current, ttl }
`)

// RedisStore keeps window state in Redis so every instance behind a load
// balancer shares one budget per client.  Client identifiers are hashed
// before they become keys.
type RedisStore struct {
	rdb    redis.Scripter
	prefix string
}

// NewRedisStore returns a store writing keys under prefix.
func NewRedisStore(rdb redis.Scripter, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "rl:contact"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// Key is the Redis key used for clientID.
func (s *RedisStore) Key(clientID string) string {
	sum := blake2b.Sum256([]byte(clientID))
	return s.prefix + ":" + hex.EncodeToString(sum[:])
}

// Hit implements Store.
func (s *RedisStore) Hit(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Decision, error) {
	vals, err := hitScript.Run(ctx, s.rdb, []string{s.Key(key)}, limit, window.Milliseconds()).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: redis hit: %w", err)
	}
	arr, ok := vals.([]interface{})
	if !ok || len(arr) != 3 {
		return Decision{}, fmt.Errorf("ratelimit: unexpected script result %#v", vals)
	}
	allowed := asInt64(arr[0]) == 1
	count := int(asInt64(arr[1]))
	ttl := time.Duration(asInt64(arr[2])) * time.Millisecond

	d := Decision{Allowed: allowed, ResetAt: now.Add(ttl)}
	if allowed {
		d.Remaining = limit - count
	} else {
		d.RetryAfter = ttl
	}
	return d, nil
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
