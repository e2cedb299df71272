package usage

import (
	"context"
	"errors"
	"time"
)

// ErrStoreUnavailable is returned when the backing store cannot be reached.
var ErrStoreUnavailable = errors.New("usage store unavailable")

// Store is the persistence layer for usage profiles.
//
// Implementations must apply one Record call atomically: a concurrent Load
// never observes a half-applied use.
type Store interface {
	// Record applies one observed use and returns the updated profile.
	Record(ctx context.Context, identity, fingerprint string, now time.Time) (*Profile, error)

	// Load returns the profile for identity, or nil when it was never seen.
	Load(ctx context.Context, identity string) (*Profile, error)
}
