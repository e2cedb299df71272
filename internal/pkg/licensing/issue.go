package licensing

import (
	"fmt"
	"strings"
	"time"

	"github.com/ManuelReschke/ProposalCraft/app/models"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/bucket"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/shortener"
)

const suffixLength = 6

// LifetimeExpiry is the expiry date of every lifetime key.
var LifetimeExpiry = bucket.Day{Year: 2099, Month: time.December, Day: 31}

// ExpiryFor returns the expiry of a key of tier issued at now.
func ExpiryFor(tier Tier, now time.Time) (bucket.Day, error) {
	switch tier {
	case TierMonthly:
		return bucket.DayOf(now.AddDate(0, 0, 30)), nil
	case TierYearly:
		return bucket.DayOf(now.AddDate(0, 0, 365)), nil
	case TierLifetime:
		return LifetimeExpiry, nil
	}
	return bucket.Day{}, fmt.Errorf("unknown tier %q", tier)
}

// Issue creates a new key PROPOSAL-<year>-<TIER>-<6 random A-Z0-9>.
func Issue(tier Tier, now time.Time) (Record, error) {
	expiry, err := ExpiryFor(tier, now)
	if err != nil {
		return Record{}, err
	}

	suffix, err := shortener.Generate(shortener.UpperAlnum, suffixLength)
	if err != nil {
		return Record{}, err
	}

	key := fmt.Sprintf("%s%d-%s-%s", KeyPrefix, now.Year(), tier.Segment(), suffix)
	return Record{Key: key, Expiry: expiry, Tier: tier}, nil
}

// IssueBatch issues quantity distinct keys.
func IssueBatch(tier Tier, quantity int, now time.Time) ([]Record, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1, got %d", quantity)
	}

	seen := make(map[string]struct{}, quantity)
	out := make([]Record, 0, quantity)
	for len(out) < quantity {
		rec, err := Issue(tier, now)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[rec.Key]; dup {
			continue
		}
		seen[rec.Key] = struct{}{}
		out = append(out, rec)
	}
	return out, nil
}

// RegistryLine formats a record as a static table line.
func (r Record) RegistryLine() string {
	return fmt.Sprintf("%q: %q,  # %s", r.Key, r.Expiry.String(), r.Tier.Title())
}

// Model converts the record for storage in the licenses table.
func (r Record) Model(email string) *models.License {
	return &models.License{
		Key:       r.Key,
		Tier:      string(r.Tier),
		ExpiresOn: r.Expiry.Start(time.UTC),
		Email:     email,
	}
}

// EmailSnippet is the message sent to a customer with their key.
func EmailSnippet(r Record, appURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your ProposalCraft %s License:\n\n", r.Tier.Title())
	fmt.Fprintf(&b, "License Key: %s\n", r.Key)
	fmt.Fprintf(&b, "Expiry Date: %s\n\n", r.Expiry.String())
	b.WriteString("How to activate:\n")
	fmt.Fprintf(&b, "1. Go to %s\n", appURL)
	b.WriteString("2. Open the \"Premium License\" box\n")
	b.WriteString("3. Enter your license key\n")
	b.WriteString("4. Click \"Activate\"\n")
	return b.String()
}
