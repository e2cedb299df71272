package usage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/bucket"
	"github.com/redis/go-redis/v9"
)

const (
	KeyPrefix = "usage:"

	profileField   = "total"
	firstSeenField = "first_seen"
	lastSeenField  = "last_seen"
)

// RedisStore persists profiles in Redis so usage survives restarts and is
// shared between instances.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func profileKey(identity string) string { return KeyPrefix + "profile:" + identity }
func fpKey(identity string) string      { return KeyPrefix + "fp:" + identity }
func dailyKey(identity string) string   { return KeyPrefix + "daily:" + identity }
func hourlyKey(identity string) string  { return KeyPrefix + "hourly:" + identity }

// Record applies one observed use inside a MULTI/EXEC transaction.
func (s *RedisStore) Record(ctx context.Context, identity, fingerprint string, now time.Time) (*Profile, error) {
	day := bucket.DayOf(now).String()
	hour := bucket.HourOf(now).String()

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, profileKey(identity), firstSeenField, day)
		pipe.HSet(ctx, profileKey(identity), lastSeenField, day)
		pipe.HIncrBy(ctx, profileKey(identity), profileField, 1)
		if fingerprint != "" {
			pipe.SAdd(ctx, fpKey(identity), fingerprint)
		}
		pipe.HIncrBy(ctx, dailyKey(identity), day, 1)
		pipe.HIncrBy(ctx, hourlyKey(identity), hour, 1)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return s.Load(ctx, identity)
}

// Load reads all four hashes/sets of a profile.
func (s *RedisStore) Load(ctx context.Context, identity string) (*Profile, error) {
	pipe := s.client.Pipeline()
	profCmd := pipe.HGetAll(ctx, profileKey(identity))
	fpCmd := pipe.SMembers(ctx, fpKey(identity))
	dailyCmd := pipe.HGetAll(ctx, dailyKey(identity))
	hourlyCmd := pipe.HGetAll(ctx, hourlyKey(identity))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	prof := profCmd.Val()
	if len(prof) == 0 {
		return nil, nil
	}

	first, err := bucket.ParseDay(prof[firstSeenField])
	if err != nil {
		return nil, err
	}
	last, err := bucket.ParseDay(prof[lastSeenField])
	if err != nil {
		return nil, err
	}

	p := newProfile(identity, first)
	p.LastSeen = last
	p.TotalUsage, _ = strconv.ParseInt(prof[profileField], 10, 64)

	for _, fp := range fpCmd.Val() {
		p.Fingerprints[fp] = struct{}{}
	}
	for k, v := range dailyCmd.Val() {
		d, err := bucket.ParseDay(k)
		if err != nil {
			continue
		}
		n, _ := strconv.ParseInt(v, 10, 64)
		p.Daily[d] = n
	}
	for k, v := range hourlyCmd.Val() {
		h, err := bucket.ParseHour(k)
		if err != nil {
			continue
		}
		n, _ := strconv.ParseInt(v, 10, 64)
		p.Hourly[h] = n
	}

	return p, nil
}
