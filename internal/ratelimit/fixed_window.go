package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// RedisFixedWindow counts attempts per key in Redis so every process
// shares one quota.
type RedisFixedWindow struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
	clock  clock.Clock
}

func NewRedisFixedWindow(client *redis.Client, prefix string, limit int, window time.Duration, c clock.Clock) (*RedisFixedWindow, error) {
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	if prefix = strings.TrimSpace(prefix); prefix == "" {
		prefix = "kafepano:ratelimit"
	}
	if c == nil {
		c = clock.New()
	}
	return &RedisFixedWindow{client: client, prefix: prefix, limit: limit, window: window, clock: c}, nil
}

// Allow fails closed when Redis cannot be reached.
func (limiter *RedisFixedWindow) Allow(ctx context.Context, key string) bool {
	windowMs := limiter.window.Milliseconds()
	slot := limiter.clock.Now().UTC().UnixMilli() / windowMs
	redisKey := fmt.Sprintf("%s:%s:%d", limiter.prefix, normalizeKey(key), slot)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	count, err := fixedWindowScript.Run(ctx, limiter.client, []string{redisKey}, windowMs).Int64()
	if err != nil {
		return false
	}
	return count <= int64(limiter.limit)
}

// MemoryFixedWindow is the single-process limiter used without Redis.
type MemoryFixedWindow struct {
	limit  int
	window time.Duration
	clock  clock.Clock

	mu     sync.Mutex
	counts map[string]int
	slot   int64
}

func NewMemoryFixedWindow(limit int, window time.Duration, c clock.Clock) (*MemoryFixedWindow, error) {
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	if c == nil {
		c = clock.New()
	}
	return &MemoryFixedWindow{limit: limit, window: window, clock: c, counts: make(map[string]int)}, nil
}

func (limiter *MemoryFixedWindow) Allow(ctx context.Context, key string) bool {
	slot := limiter.clock.Now().UnixMilli() / limiter.window.Milliseconds()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if slot != limiter.slot {
		limiter.slot = slot
		limiter.counts = make(map[string]int)
	}
	key = normalizeKey(key)
	limiter.counts[key]++
	return limiter.counts[key] <= limiter.limit
}

func normalizeKey(key string) string {
	if key = strings.ToLower(strings.TrimSpace(key)); key == "" {
		return "unknown"
	}
	return key
}
