package usage

import (
	"context"
	"errors"
	"time"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/keylock"
)

// ErrEmptyIdentity is returned when a use is recorded without an identity.
var ErrEmptyIdentity = errors.New("usage: empty identity")

// Ledger records every attempted use of an identity, allowed or not. The
// abuse detector reads the profiles it builds.
type Ledger struct {
	store Store
	locks *keylock.Locker
}

// NewLedger creates a ledger on top of store.
func NewLedger(store Store) *Ledger {
	return &Ledger{
		store: store,
		locks: keylock.New(),
	}
}

// RecordUse adds one use for identity seen from fingerprint at now and
// returns the updated profile. The first use creates the profile.
func (l *Ledger) RecordUse(ctx context.Context, identity, fingerprint string, now time.Time) (*Profile, error) {
	if identity == "" {
		return nil, ErrEmptyIdentity
	}

	unlock := l.locks.Lock(identity)
	defer unlock()

	return l.store.Record(ctx, identity, fingerprint, now)
}

// Get returns the profile of identity, or nil when it was never used.
func (l *Ledger) Get(ctx context.Context, identity string) (*Profile, error) {
	if identity == "" {
		return nil, ErrEmptyIdentity
	}
	return l.store.Load(ctx, identity)
}
