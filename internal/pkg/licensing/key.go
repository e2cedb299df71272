package licensing

import (
	"strings"
)

const (
	KeyPrefix    = "PROPOSAL-"
	minKeyLength = 10
)

// Tier is the commercial term of a license.
type Tier string

const (
	TierMonthly  Tier = "monthly"
	TierYearly   Tier = "yearly"
	TierLifetime Tier = "lifetime"
)

var tierSegments = map[string]Tier{
	"MONTH": TierMonthly,
	"YEAR":  TierYearly,
	"LIFE":  TierLifetime,
}

// Segment returns the key segment that encodes t.
func (t Tier) Segment() string {
	switch t {
	case TierMonthly:
		return "MONTH"
	case TierYearly:
		return "YEAR"
	case TierLifetime:
		return "LIFE"
	}
	return ""
}

// Title returns the display form ("Monthly").
func (t Tier) Title() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

// ParseTier accepts the tier name in any case.
func ParseTier(s string) (Tier, bool) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TierMonthly, TierYearly, TierLifetime:
		return t, true
	}
	return "", false
}

// NormalizeKey trims whitespace and upper-cases the key.
func NormalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// ValidFormat checks the shape of an already normalized key.
func ValidFormat(key string) bool {
	return strings.HasPrefix(key, KeyPrefix) && len(key) >= minKeyLength
}

// TierFromKey reads the tier segment of PROPOSAL-<year>-<TIER>-<suffix>.
func TierFromKey(key string) (Tier, bool) {
	parts := strings.Split(NormalizeKey(key), "-")
	if len(parts) < 3 {
		return "", false
	}
	t, ok := tierSegments[parts[2]]
	return t, ok
}

// Mask hides all but the last four characters for logs and pages.
func Mask(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
