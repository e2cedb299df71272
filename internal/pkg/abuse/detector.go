package abuse

import (
	"time"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/bucket"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/env"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/usage"
)

// Flag names one abuse rule that fired.
type Flag string

const (
	FlagSharedLicense Flag = "shared_license"
	FlagDailyVolume   Flag = "daily_volume"
	FlagVelocity      Flag = "velocity"
)

// Thresholds configure the detector. A rule fires when the observed value is
// strictly greater than its threshold.
type Thresholds struct {
	MaxFingerprints    int
	MaxDailyUsage      int64
	VelocityWindowDays int
	VelocityMaxTotal   int64
}

// DefaultThresholds are used when no environment override is present.
var DefaultThresholds = Thresholds{
	MaxFingerprints:    3,
	MaxDailyUsage:      50,
	VelocityWindowDays: 2,
	VelocityMaxTotal:   100,
}

// ThresholdsFromEnv reads ABUSE_* overrides on top of DefaultThresholds.
func ThresholdsFromEnv() Thresholds {
	return Thresholds{
		MaxFingerprints:    env.GetEnvInt("ABUSE_MAX_FINGERPRINTS", DefaultThresholds.MaxFingerprints),
		MaxDailyUsage:      int64(env.GetEnvInt("ABUSE_MAX_DAILY", int(DefaultThresholds.MaxDailyUsage))),
		VelocityWindowDays: env.GetEnvInt("ABUSE_VELOCITY_DAYS", DefaultThresholds.VelocityWindowDays),
		VelocityMaxTotal:   int64(env.GetEnvInt("ABUSE_VELOCITY_TOTAL", int(DefaultThresholds.VelocityMaxTotal))),
	}
}

// Detector evaluates usage profiles against the thresholds. It is stateless
// and safe for concurrent use.
type Detector struct {
	t Thresholds
}

func NewDetector(t Thresholds) *Detector {
	return &Detector{t: t}
}

// Evaluate returns every rule that fires for p at now. A nil profile never
// fires.
func (d *Detector) Evaluate(p *usage.Profile, now time.Time) []Flag {
	if p == nil {
		return nil
	}

	var flags []Flag
	today := bucket.DayOf(now)

	if p.FingerprintCount() > d.t.MaxFingerprints {
		flags = append(flags, FlagSharedLicense)
	}
	if p.DailyCount(today) > d.t.MaxDailyUsage {
		flags = append(flags, FlagDailyVolume)
	}
	if today.DaysSince(p.FirstSeen) < d.t.VelocityWindowDays && p.TotalUsage > d.t.VelocityMaxTotal {
		flags = append(flags, FlagVelocity)
	}

	return flags
}

// IsAbusive reports whether any rule fires.
func (d *Detector) IsAbusive(p *usage.Profile, now time.Time) bool {
	return len(d.Evaluate(p, now)) > 0
}
