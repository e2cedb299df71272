package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttled limits the rate of upstream calls across the whole process.
// Waiting honours the caller's context, so a request timeout also bounds
// time spent in the queue.
type Throttled struct {
	next    Generator
	limiter *rate.Limiter
}

// NewThrottled wraps next. A nil limiter disables throttling.
func NewThrottled(next Generator, limiter *rate.Limiter) *Throttled {
	return &Throttled{next: next, limiter: limiter}
}

// NewLimiter returns nil for rps <= 0.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func (t *Throttled) Generate(ctx context.Context, req Request) (string, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return "", transportError("throttle", err)
		}
	}
	return t.next.Generate(ctx, req)
}
