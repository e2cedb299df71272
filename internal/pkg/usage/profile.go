package usage

import (
	"sort"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/bucket"
)

// Profile is the observed usage history of one identity (a license key or
// an anonymous session).
type Profile struct {
	Identity     string
	FirstSeen    bucket.Day
	LastSeen     bucket.Day
	Fingerprints map[string]struct{}
	TotalUsage   int64
	Daily        map[bucket.Day]int64
	Hourly       map[bucket.Hour]int64
}

func newProfile(identity string, day bucket.Day) *Profile {
	return &Profile{
		Identity:     identity,
		FirstSeen:    day,
		LastSeen:     day,
		Fingerprints: make(map[string]struct{}),
		Daily:        make(map[bucket.Day]int64),
		Hourly:       make(map[bucket.Hour]int64),
	}
}

// DailyCount returns the number of uses recorded on day.
func (p *Profile) DailyCount(day bucket.Day) int64 {
	if p == nil {
		return 0
	}
	return p.Daily[day]
}

// HourlyCount returns the number of uses recorded in hour.
func (p *Profile) HourlyCount(hour bucket.Hour) int64 {
	if p == nil {
		return 0
	}
	return p.Hourly[hour]
}

// FingerprintCount returns the number of distinct client fingerprints seen.
func (p *Profile) FingerprintCount() int {
	if p == nil {
		return 0
	}
	return len(p.Fingerprints)
}

// FingerprintList returns the fingerprints in sorted order.
func (p *Profile) FingerprintList() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.Fingerprints))
	for fp := range p.Fingerprints {
		out = append(out, fp)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy so callers never share maps with a store.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := &Profile{
		Identity:     p.Identity,
		FirstSeen:    p.FirstSeen,
		LastSeen:     p.LastSeen,
		TotalUsage:   p.TotalUsage,
		Fingerprints: make(map[string]struct{}, len(p.Fingerprints)),
		Daily:        make(map[bucket.Day]int64, len(p.Daily)),
		Hourly:       make(map[bucket.Hour]int64, len(p.Hourly)),
	}
	for fp := range p.Fingerprints {
		c.Fingerprints[fp] = struct{}{}
	}
	for d, n := range p.Daily {
		c.Daily[d] = n
	}
	for h, n := range p.Hourly {
		c.Hourly[h] = n
	}
	return c
}
