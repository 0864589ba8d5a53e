package ratestore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PabloGalante/farum-wellness/internal/domain"
)

// hitScript performs the fixed-window check-and-increment in one round trip.
// The window start is the first hit; the key expires at the reset instant.
//
// KEYS[1] key, ARGV[1] window in ms, ARGV[2] max, ARGV[3] now in unix ms.
// Returns {allowed (0|1), count, resetAt unix ms}.
var hitScript = redis.NewScript(`
local count = redis.call("HGET", KEYS[1], "count")
local reset = redis.call("HGET", KEYS[1], "reset")
local now = tonumber(ARGV[3])
if not count or not reset or tonumber(reset) <= now then
	reset = now + tonumber(ARGV[1])
	redis.call("HSET", KEYS[1], "count", 1, "reset", reset)
	redis.call("PEXPIREAT", KEYS[1], reset)
	return {1, 1, reset}
end
count = tonumber(count)
reset = tonumber(reset)
if count >= tonumber(ARGV[2]) then
	return {0, count, reset}
end
count = redis.call("HINCRBY", KEYS[1], "count", 1)
return {1, count, reset}
`)

// RedisStore shares rate records across server instances.
type RedisStore struct {
	client redis.Scripter
	prefix string
}

func NewRedisStore(client redis.Scripter, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Hit(ctx context.Context, key string, window time.Duration, max int, now time.Time) (domain.RateDecision, error) {
	res, err := hitScript.Run(ctx, s.client, []string{s.prefix + key},
		window.Milliseconds(), max, now.UnixMilli()).Int64Slice()
	if err != nil {
		return domain.RateDecision{}, fmt.Errorf("redis rate hit: %w", err)
	}
	if len(res) != 3 {
		return domain.RateDecision{}, fmt.Errorf("redis rate hit: unexpected reply %v", res)
	}

	d := domain.RateDecision{
		Allowed: res[0] == 1,
		ResetAt: time.UnixMilli(res[2]).UTC(),
	}
	if d.Allowed {
		d.Remaining = max - int(res[1])
	}
	return d, nil
}

// DialRedis connects to addr and verifies the connection with a ping.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
