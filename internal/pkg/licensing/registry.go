package licensing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ManuelReschke/ProposalCraft/app/models"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/bucket"
	"gorm.io/gorm"
)

// Record is an immutable registry entry.
type Record struct {
	Key    string
	Expiry bucket.Day
	Tier   Tier
}

// ValidAt reports whether now is strictly before the start of the expiry day.
func (r Record) ValidAt(now time.Time) bool {
	return now.Before(r.Expiry.Start(now.Location()))
}

// Registry resolves license keys. Implementations are read-only on the
// request path.
type Registry interface {
	Lookup(ctx context.Context, key string) (Record, bool, error)
}

// StaticRegistry is a table fixed at construction.
type StaticRegistry struct {
	records map[string]Record
}

// DefaultKeys seeds the static table.
var DefaultKeys = map[string]string{
	"PROPOSAL-2024-LIFE-WF5SFN": "2099-12-31",
	"PROPOSAL-2024-YEAR-K7M2QX": "2026-11-27",
}

// NewStaticRegistry builds a registry from key to YYYY-MM-DD expiry. The tier
// comes from the key's tier segment, falling back to monthly.
func NewStaticRegistry(entries map[string]string) (*StaticRegistry, error) {
	records := make(map[string]Record, len(entries))
	for raw, expiry := range entries {
		key := NormalizeKey(raw)
		if !ValidFormat(key) {
			return nil, fmt.Errorf("static license %q: invalid format", raw)
		}
		day, err := bucket.ParseDay(expiry)
		if err != nil {
			return nil, fmt.Errorf("static license %q: %w", raw, err)
		}
		tier, ok := TierFromKey(key)
		if !ok {
			tier = TierMonthly
		}
		records[key] = Record{Key: key, Expiry: day, Tier: tier}
	}
	return &StaticRegistry{records: records}, nil
}

func (r *StaticRegistry) Lookup(ctx context.Context, key string) (Record, bool, error) {
	rec, ok := r.records[NormalizeKey(key)]
	return rec, ok, nil
}

// Len returns the number of entries.
func (r *StaticRegistry) Len() int {
	return len(r.records)
}

// LicenseSource is the part of the license repository the registry needs.
type LicenseSource interface {
	GetByKey(key string) (*models.License, error)
}

// RepositoryRegistry resolves keys from the licenses table.
type RepositoryRegistry struct {
	source LicenseSource
}

func NewRepositoryRegistry(source LicenseSource) *RepositoryRegistry {
	return &RepositoryRegistry{source: source}
}

func (r *RepositoryRegistry) Lookup(ctx context.Context, key string) (Record, bool, error) {
	lic, err := r.source.GetByKey(NormalizeKey(key))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("license lookup: %w", err)
	}
	if lic == nil || lic.Revoked {
		return Record{}, false, nil
	}

	tier, ok := ParseTier(lic.Tier)
	if !ok {
		tier, _ = TierFromKey(lic.Key)
	}
	return Record{
		Key:    NormalizeKey(lic.Key),
		Expiry: bucket.DayOf(lic.ExpiresOn),
		Tier:   tier,
	}, true, nil
}

// ChainRegistry asks each registry in order; the first hit wins.
type ChainRegistry []Registry

func (c ChainRegistry) Lookup(ctx context.Context, key string) (Record, bool, error) {
	for _, r := range c {
		rec, ok, err := r.Lookup(ctx, key)
		if err != nil {
			return Record{}, false, err
		}
		if ok {
			return rec, true, nil
		}
	}
	return Record{}, false, nil
}
