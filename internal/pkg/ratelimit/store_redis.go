package ratelimit

import (
	"context"
	"errors"
	"fmt"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/bucket"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/entitlements"
	"github.com/redis/go-redis/v9"
)

const KeyPrefix = "ratelimit:"

// consumeScript checks the daily then the hourly ceiling and increments both
// counters only when neither is reached. Redis runs it without interleaving
// other commands, so instances sharing one database cannot overshoot.
//
// Reply: {allowed, daily, hourly, window} with window 1 = day, 2 = hour.
var consumeScript = redis.NewScript(`
local daily = tonumber(redis.call('HGET', KEYS[1], ARGV[1]) or '0')
local hourly = tonumber(redis.call('HGET', KEYS[2], ARGV[2]) or '0')
if daily >= tonumber(ARGV[3]) then
	return {0, daily, hourly, 1}
end
if hourly >= tonumber(ARGV[4]) then
	return {0, daily, hourly, 2}
end
daily = redis.call('HINCRBY', KEYS[1], ARGV[1], 1)
hourly = redis.call('HINCRBY', KEYS[2], ARGV[2], 1)
return {1, daily, hourly, 0}
`)

// RedisStore keeps one hash per identity and window, fields are bucket keys.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func dailyKey(identity string) string  { return KeyPrefix + identity + ":daily" }
func hourlyKey(identity string) string { return KeyPrefix + identity + ":hourly" }

func (s *RedisStore) Counts(ctx context.Context, identity string, day bucket.Day, hour bucket.Hour) (int64, int64, error) {
	pipe := s.client.Pipeline()
	d := pipe.HGet(ctx, dailyKey(identity), day.String())
	h := pipe.HGet(ctx, hourlyKey(identity), hour.String())
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return 0, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	daily, err := d.Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, 0, fmt.Errorf("daily counter of %s: %w", identity, err)
	}
	hourly, err := h.Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, 0, fmt.Errorf("hourly counter of %s: %w", identity, err)
	}
	return daily, hourly, nil
}

func (s *RedisStore) Consume(ctx context.Context, identity string, day bucket.Day, hour bucket.Hour, limits entitlements.Limits) (Consumption, error) {
	keys := []string{dailyKey(identity), hourlyKey(identity)}
	reply, err := consumeScript.Run(ctx, s.client, keys,
		day.String(), hour.String(), limits.Daily, limits.Hourly).Int64Slice()
	if err != nil {
		return Consumption{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(reply) != 4 {
		return Consumption{}, fmt.Errorf("%w: unexpected script reply %v", ErrStoreUnavailable, reply)
	}

	c := Consumption{Allowed: reply[0] == 1, Daily: reply[1], Hourly: reply[2]}
	switch reply[3] {
	case 1:
		c.Window = WindowDay
	case 2:
		c.Window = WindowHour
	}
	return c, nil
}
