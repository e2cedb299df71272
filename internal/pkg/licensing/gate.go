package licensing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/abuse"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/entitlements"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/metrics"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/ratelimit"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/usage"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// AnonymousPrefix marks identities of callers without a license key.
const AnonymousPrefix = "anon:"

// ErrNoIdentity is returned when a caller has neither key, session nor
// fingerprint.
var ErrNoIdentity = errors.New("caller has no identity")

// Reason explains a denied decision.
type Reason string

const (
	ReasonInvalidLicense      Reason = "invalid_license"
	ReasonUnregisteredLicense Reason = "unregistered_license"
	ReasonAbuse               Reason = "abuse"
	ReasonDailyLimit          Reason = "daily_limit"
	ReasonHourlyLimit         Reason = "hourly_limit"
)

// Caller is everything the gate knows about who is asking. ClientSession
// marks a SessionID chosen by the client; such ids scope history but are
// never used as the metering identity.
type Caller struct {
	LicenseKey    string
	SessionID     string
	Fingerprint   string
	ClientSession bool
}

// Decision is the result of Authorize.
type Decision struct {
	Allowed   bool
	IsPremium bool
	Plan      entitlements.Plan
	Identity  string
	Reason    Reason
	Flags     []abuse.Flag
	License   *Record
	Verdict   ratelimit.Verdict
}

// Status is a read-only view for the UI and the usage endpoint.
type Status struct {
	Identity    string
	Anonymous   bool
	FormatValid bool
	Plan        entitlements.Plan
	License     *Record
	Expired     bool
	Flags       []abuse.Flag
	Usage       ratelimit.Usage
}

// Gate decides whether an identity may make one more request.
type Gate struct {
	registry           Registry
	ledger             *usage.Ledger
	detector           *abuse.Detector
	limiter            *ratelimit.Limiter
	rejectUnregistered bool
}

type GateOption func(*Gate)

// WithRejectUnregistered denies well-formed keys missing from the registry
// instead of treating them as free tier.
func WithRejectUnregistered(reject bool) GateOption {
	return func(g *Gate) { g.rejectUnregistered = reject }
}

func NewGate(registry Registry, ledger *usage.Ledger, detector *abuse.Detector, limiter *ratelimit.Limiter, opts ...GateOption) *Gate {
	g := &Gate{
		registry: registry,
		ledger:   ledger,
		detector: detector,
		limiter:  limiter,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Limits returns the per-plan ceilings the gate enforces.
func (g *Gate) Limits() entitlements.Table {
	return g.limiter.Limits()
}

func anonymousIdentity(c Caller) (string, error) {
	switch {
	case c.SessionID != "" && !c.ClientSession:
		return AnonymousPrefix + c.SessionID, nil
	case c.Fingerprint != "":
		return AnonymousPrefix + c.Fingerprint, nil
	case c.SessionID != "":
		return AnonymousPrefix + c.SessionID, nil
	}
	return "", ErrNoIdentity
}

// Authorize runs the full check for one request and consumes quota when the
// request is allowed.
func (g *Gate) Authorize(ctx context.Context, c Caller, now time.Time) (Decision, error) {
	d, err := g.authorize(ctx, c, now)
	if err != nil {
		return d, err
	}

	if d.Allowed {
		metrics.ObserveAuthorization("allowed")
	} else {
		metrics.ObserveAuthorization(string(d.Reason))
		fiberlog.Infof("[Gate] denied %s: %s", Mask(d.Identity), d.Reason)
	}
	for _, f := range d.Flags {
		metrics.ObserveAbuseFlag(string(f))
	}
	return d, nil
}

func (g *Gate) authorize(ctx context.Context, c Caller, now time.Time) (Decision, error) {
	key := NormalizeKey(c.LicenseKey)

	if key == "" {
		identity, err := anonymousIdentity(c)
		if err != nil {
			return Decision{}, err
		}
		return g.consume(ctx, Decision{Identity: identity, Plan: entitlements.PlanFree}, now)
	}

	d := Decision{Identity: key, Plan: entitlements.PlanFree}
	if !ValidFormat(key) {
		d.Reason = ReasonInvalidLicense
		return d, nil
	}

	profile, err := g.ledger.RecordUse(ctx, key, c.Fingerprint, now)
	if err != nil {
		return Decision{}, fmt.Errorf("record use: %w", err)
	}

	if flags := g.detector.Evaluate(profile, now); len(flags) > 0 {
		d.Reason = ReasonAbuse
		d.Flags = flags
		return d, nil
	}

	rec, found, err := g.registry.Lookup(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	if found {
		d.License = &rec
		if rec.ValidAt(now) {
			d.Plan = entitlements.PlanPremium
		}
	} else if g.rejectUnregistered {
		d.Reason = ReasonUnregisteredLicense
		return d, nil
	}

	return g.consume(ctx, d, now)
}

func (g *Gate) consume(ctx context.Context, d Decision, now time.Time) (Decision, error) {
	v, err := g.limiter.TryConsume(ctx, d.Identity, d.Plan, now)
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit: %w", err)
	}

	d.Verdict = v
	d.Allowed = v.Allowed
	d.IsPremium = d.Plan.IsPremium() && v.Allowed
	if !v.Allowed {
		if v.Window == ratelimit.WindowHour {
			d.Reason = ReasonHourlyLimit
		} else {
			d.Reason = ReasonDailyLimit
		}
	}
	return d, nil
}

// Status reports plan, license and current usage without recording
// anything.
func (g *Gate) Status(ctx context.Context, c Caller, now time.Time) (Status, error) {
	key := NormalizeKey(c.LicenseKey)
	s := Status{Plan: entitlements.PlanFree}

	if key == "" {
		identity, err := anonymousIdentity(c)
		if err != nil {
			return Status{}, err
		}
		s.Identity = identity
		s.Anonymous = true
	} else {
		s.Identity = key
		s.FormatValid = ValidFormat(key)
		if !s.FormatValid {
			return s, nil
		}

		rec, found, err := g.registry.Lookup(ctx, key)
		if err != nil {
			return Status{}, err
		}
		if found {
			s.License = &rec
			s.Expired = !rec.ValidAt(now)
			if !s.Expired {
				s.Plan = entitlements.PlanPremium
			}
		}

		profile, err := g.ledger.Get(ctx, key)
		if err != nil {
			return Status{}, err
		}
		s.Flags = g.detector.Evaluate(profile, now)
	}

	u, err := g.limiter.Snapshot(ctx, s.Identity, s.Plan, now)
	if err != nil {
		return Status{}, err
	}
	s.Usage = u
	return s, nil
}
