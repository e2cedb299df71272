package ratelimit

import (
	"time"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/entitlements"
)

// Window is the bucket a verdict refers to.
type Window string

const (
	WindowDay  Window = "day"
	WindowHour Window = "hour"
)

// Verdict is the outcome of one TryConsume call. For allowed requests Window
// is empty and Used/Limit describe the daily bucket after the increment.
type Verdict struct {
	Allowed    bool
	Window     Window
	Used       int64
	Limit      int64
	RetryAfter time.Duration
}

// Usage is a read-only view of an identity's current buckets.
type Usage struct {
	Plan        entitlements.Plan
	DailyUsed   int64
	DailyLimit  int64
	HourlyUsed  int64
	HourlyLimit int64
	ResetsIn    time.Duration
}

// DailyRemaining never goes below zero.
func (u Usage) DailyRemaining() int64 {
	if r := u.DailyLimit - u.DailyUsed; r > 0 {
		return r
	}
	return 0
}

// HourlyRemaining never goes below zero.
func (u Usage) HourlyRemaining() int64 {
	if r := u.HourlyLimit - u.HourlyUsed; r > 0 {
		return r
	}
	return 0
}
