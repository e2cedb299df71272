package ratelimit

import (
	"context"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/bucket"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/entitlements"
)

// Consumption is what a store reports for one Consume call. Daily and Hourly
// are the counters after the call; they are unchanged when Allowed is false.
type Consumption struct {
	Allowed bool
	Window  Window
	Daily   int64
	Hourly  int64
}

// Store persists the allowed-request counters. Consume must check both
// ceilings and increment both counters as one atomic step, because several
// processes may share the same backend.
type Store interface {
	Counts(ctx context.Context, identity string, day bucket.Day, hour bucket.Hour) (daily, hourly int64, err error)
	Consume(ctx context.Context, identity string, day bucket.Day, hour bucket.Hour, limits entitlements.Limits) (Consumption, error)
}
