package statistics

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/bucket"
	"github.com/redis/go-redis/v9"
)

const (
	CacheKeyProposalsTotal = "statistics:proposals:total"
	CacheKeyProposalsDaily = "statistics:proposals:daily:%s" // Format with date YYYY-MM-DD
	CacheExpiration        = 30 * time.Minute
)

// Source counts generated proposals.
type Source interface {
	Count() (int64, error)
	CountSince(t time.Time) (int64, error)
}

// Data holds the figures shown on the start page
type Data struct {
	TodayProposals int64
	TotalProposals int64
}

// Service caches Data in Redis, or in process when no client is configured.
type Service struct {
	source Source
	client *redis.Client

	mu         sync.Mutex
	local      Data
	localDay   bucket.Day
	lastUpdate time.Time
	interval   time.Duration
}

func NewService(source Source, client *redis.Client) *Service {
	return &Service{
		source:   source,
		client:   client,
		interval: 5 * time.Minute,
	}
}

// Get returns cached figures, refreshing them when stale.
func (s *Service) Get(ctx context.Context, now time.Time) Data {
	day := bucket.DayOf(now)

	if s.client == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.localDay == day && now.Sub(s.lastUpdate) < s.interval {
			return s.local
		}
		d, err := s.compute(now)
		if err != nil {
			log.Printf("[Statistics] refresh failed: %v", err)
			return s.local
		}
		s.local, s.localDay, s.lastUpdate = d, day, now
		return d
	}

	dailyKey := fmt.Sprintf(CacheKeyProposalsDaily, day.String())
	vals, err := s.client.MGet(ctx, CacheKeyProposalsTotal, dailyKey).Result()
	if err == nil && vals[0] != nil && vals[1] != nil {
		total, _ := strconv.ParseInt(fmt.Sprint(vals[0]), 10, 64)
		today, _ := strconv.ParseInt(fmt.Sprint(vals[1]), 10, 64)
		return Data{TodayProposals: today, TotalProposals: total}
	}

	d, err := s.compute(now)
	if err != nil {
		log.Printf("[Statistics] refresh failed: %v", err)
		return Data{}
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, CacheKeyProposalsTotal, d.TotalProposals, CacheExpiration)
	pipe.Set(ctx, dailyKey, d.TodayProposals, CacheExpiration)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[Statistics] caching failed: %v", err)
	}
	return d
}

// Invalidate drops cached figures so the next Get recomputes them.
func (s *Service) Invalidate(ctx context.Context, now time.Time) {
	if s.client == nil {
		s.mu.Lock()
		s.lastUpdate = time.Time{}
		s.mu.Unlock()
		return
	}
	dailyKey := fmt.Sprintf(CacheKeyProposalsDaily, bucket.DayOf(now).String())
	if err := s.client.Del(ctx, CacheKeyProposalsTotal, dailyKey).Err(); err != nil {
		log.Printf("[Statistics] invalidate failed: %v", err)
	}
}

func (s *Service) compute(now time.Time) (Data, error) {
	total, err := s.source.Count()
	if err != nil {
		return Data{}, err
	}
	today, err := s.source.CountSince(bucket.DayOf(now).Start(now.Location()))
	if err != nil {
		return Data{}, err
	}
	return Data{TodayProposals: today, TotalProposals: total}, nil
}
