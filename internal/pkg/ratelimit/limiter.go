package ratelimit

import (
	"context"
	"time"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/bucket"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/entitlements"
)

// Limiter enforces the daily and hourly ceilings of each plan. Only allowed
// requests are counted.
type Limiter struct {
	store  Store
	limits entitlements.Table
}

func NewLimiter(store Store, limits entitlements.Table) *Limiter {
	return &Limiter{
		store:  store,
		limits: limits,
	}
}

// Limits returns the configured plan table.
func (l *Limiter) Limits() entitlements.Table {
	return l.limits
}

// TryConsume checks the daily ceiling, then the hourly one, and increments
// both counters by one only when the request is allowed. The check and the
// increment happen in a single store call.
func (l *Limiter) TryConsume(ctx context.Context, identity string, plan entitlements.Plan, now time.Time) (Verdict, error) {
	if identity == "" {
		return Verdict{}, ErrInvalidIdentity
	}

	limits := l.limits.For(plan)
	res, err := l.store.Consume(ctx, identity, bucket.DayOf(now), bucket.HourOf(now), limits)
	if err != nil {
		return Verdict{}, err
	}

	switch {
	case res.Allowed:
		return Verdict{
			Allowed: true,
			Used:    res.Daily,
			Limit:   limits.Daily,
		}, nil
	case res.Window == WindowHour:
		return Verdict{
			Window:     WindowHour,
			Used:       res.Hourly,
			Limit:      limits.Hourly,
			RetryAfter: bucket.UntilNextHour(now),
		}, nil
	default:
		return Verdict{
			Window:     WindowDay,
			Used:       res.Daily,
			Limit:      limits.Daily,
			RetryAfter: bucket.UntilNextDay(now),
		}, nil
	}
}

// Snapshot reports current usage without consuming anything.
func (l *Limiter) Snapshot(ctx context.Context, identity string, plan entitlements.Plan, now time.Time) (Usage, error) {
	if identity == "" {
		return Usage{}, ErrInvalidIdentity
	}

	limits := l.limits.For(plan)
	daily, hourly, err := l.store.Counts(ctx, identity, bucket.DayOf(now), bucket.HourOf(now))
	if err != nil {
		return Usage{}, err
	}

	return Usage{
		Plan:        plan,
		DailyUsed:   daily,
		DailyLimit:  limits.Daily,
		HourlyUsed:  hourly,
		HourlyLimit: limits.Hourly,
		ResetsIn:    bucket.UntilNextDay(now),
	}, nil
}
