package entitlements

import "github.com/ManuelReschke/ProposalCraft/internal/pkg/env"

type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

// Limits are the per-identity request ceilings of a plan.
type Limits struct {
	Daily  int64
	Hourly int64
}

const (
	defaultFreeDaily    = 5
	defaultPremiumDaily = 100
	defaultHourly       = 10
)

// IsPremium reports whether p unlocks the premium ceilings.
func (p Plan) IsPremium() bool {
	return p == PlanPremium
}

// Table holds the ceilings for every plan.
type Table struct {
	Free    Limits
	Premium Limits
}

// DefaultTable is 5/day for free, 100/day for premium, 10/hour for both.
func DefaultTable() Table {
	return Table{
		Free:    Limits{Daily: defaultFreeDaily, Hourly: defaultHourly},
		Premium: Limits{Daily: defaultPremiumDaily, Hourly: defaultHourly},
	}
}

// TableFromEnv applies LIMIT_FREE_DAILY, LIMIT_PREMIUM_DAILY and LIMIT_HOURLY.
func TableFromEnv() Table {
	hourly := int64(env.GetEnvInt("LIMIT_HOURLY", defaultHourly))
	return Table{
		Free: Limits{
			Daily:  int64(env.GetEnvInt("LIMIT_FREE_DAILY", defaultFreeDaily)),
			Hourly: hourly,
		},
		Premium: Limits{
			Daily:  int64(env.GetEnvInt("LIMIT_PREMIUM_DAILY", defaultPremiumDaily)),
			Hourly: hourly,
		},
	}
}

// For returns the limits of plan. Unknown plans get the free limits.
func (t Table) For(plan Plan) Limits {
	if plan.IsPremium() {
		return t.Premium
	}
	return t.Free
}
